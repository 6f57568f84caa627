package imagefilter

import (
	"context"
	"runtime"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/Skryldev/image-filter/adjust"
	"github.com/Skryldev/image-filter/core"
	"github.com/Skryldev/image-filter/filters"
)

// Job is one independent request of a Batch.  Filter takes precedence over
// Adjust when both are set.
type Job struct {
	Name   string
	Input  core.Input
	Adjust *adjust.Spec
	Filter filters.Request
}

// JobResult pairs a Job with its outcome.  Index is the job's position in
// the submitted slice.
type JobResult struct {
	Index    int
	Name     string
	Result   *core.ProcessingResult
	Err      error
	Duration time.Duration
}

// Batch runs jobs on a bounded worker pool of cfg.Workers goroutines
// (NumCPU when zero).  Each job owns its bytes and buffer; results come back
// in submission order.  A failing job does not stop the others.
func (p *Processor) Batch(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	wp := workerpool.New(min(workers, len(jobs)))
	for i, job := range jobs {
		i, job := i, job
		wp.Submit(func() {
			start := time.Now()
			res, err := p.runJob(ctx, job)
			results[i] = JobResult{Index: i, Name: job.Name, Result: res, Err: err, Duration: time.Since(start)}
		})
	}
	wp.StopWait()
	return results
}

func (p *Processor) runJob(ctx context.Context, job Job) (*core.ProcessingResult, error) {
	ip, err := p.Load(job.Input)
	if err != nil {
		return nil, err
	}
	ip = ip.WithName(job.Name)
	if job.Filter != nil {
		return ip.ComputeFilter(ctx, job.Filter)
	}
	return ip.ComputeAdjustments(ctx, job.Adjust)
}
