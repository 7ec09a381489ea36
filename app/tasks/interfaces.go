package tasks

// TaskSchedulerInterface runs background tasks on a worker pool.
//
//	scheduler := NewScheduler(resolutionRepo, interval, workerCount, retention)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRecordResolutionTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// WriteObserver is told about every resolution log write attempt.
type WriteObserver interface {
	ObserveLogWrite(err error)
}
