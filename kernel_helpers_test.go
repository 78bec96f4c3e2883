package rtkernel

// waitForSignal polls ch from inside a task entry without blocking the
// task's goroutine on a native channel receive, which would hold the run
// token hostage if ch's closer is a task that hasn't been scheduled yet.
// Each unsuccessful poll yields the token via Sleep so the scheduler can
// make progress on whichever task will eventually close ch.
func waitForSignal(tt *Task, ch <-chan struct{}) {
	for {
		select {
		case <-ch:
			return
		default:
			tt.Sleep(1)
		}
	}
}
