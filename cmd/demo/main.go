// Command demo shows basic rtkernel usage: two periodic tasks of
// different priorities, a mutex shared between them, and a software timer
// that reports progress.
//
// Run with: go run ./cmd/demo
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pdlsurya/rtkernel"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	k := rtkernel.New(rtkernel.WithTickInterval(time.Millisecond))

	mu := rtkernel.NewMutex(k)
	shared := 0

	high, err := rtkernel.NewTask("high-priority", 1, func(t *rtkernel.Task) {
		for {
			if err := mu.Lock(t, rtkernel.MaxWait); err == nil {
				shared++
				fmt.Printf("high: shared=%d\n", shared)
				_ = mu.Unlock(t)
			}
			t.Sleep(50)
		}
	}, nil)
	if err != nil {
		panic(err)
	}

	low, err := rtkernel.NewTask("low-priority", 10, func(t *rtkernel.Task) {
		for {
			if err := mu.Lock(t, rtkernel.MaxWait); err == nil {
				shared++
				fmt.Printf("low: shared=%d\n", shared)
				_ = mu.Unlock(t)
			}
			t.Sleep(75)
		}
	}, nil)
	if err != nil {
		panic(err)
	}

	if err := k.AddTask(high); err != nil {
		panic(err)
	}
	if err := k.AddTask(low); err != nil {
		panic(err)
	}

	reportTimer := rtkernel.NewTimer(k, rtkernel.TimerPeriodic, 500, func() {
		fmt.Println("--- timer tick ---")
	})
	reportTimer.Start()

	go func() {
		<-ctx.Done()
		_ = k.Shutdown(context.Background())
	}()

	if err := k.Run(ctx); err != nil {
		fmt.Printf("kernel exited with: %v\n", err)
	}
}
