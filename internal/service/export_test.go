package service

import "context"

// RunSweep runs one recovery pass of a scheduler built by NewSchedulerService.
func RunSweep(ctx context.Context, s SchedulerService) error {
	return s.(*schedulerService).Sweep(ctx)
}
