package strategy

import (
	"fmt"
	"runtime"
	"sync"
)

// Strategy names accepted by ForName.
const (
	SequentialName = "sequential"
	ConcurrentName = "concurrent"
)

// Task is one unit of work. Tasks write their own results.
type Task func() error

// ExecutionStrategy runs a list of tasks and reports the failure of the
// earliest task in list order, if any.
type ExecutionStrategy interface {
	Execute(tasks []Task) error
	GetStrategyName() string
}

// SequentialStrategy runs tasks one after another and stops at the first
// error.
type SequentialStrategy struct{}

// NewSequentialStrategy creates a new sequential strategy
func NewSequentialStrategy() ExecutionStrategy {
	return &SequentialStrategy{}
}

// Execute runs the tasks in order
func (s *SequentialStrategy) Execute(tasks []Task) error {
	for _, task := range tasks {
		if err := task(); err != nil {
			return err
		}
	}
	return nil
}

// GetStrategyName returns the strategy name
func (s *SequentialStrategy) GetStrategyName() string {
	return SequentialName
}

// ConcurrentStrategy runs every task on at most maxWorkers goroutines. The
// reported error matches what SequentialStrategy would return.
type ConcurrentStrategy struct {
	maxWorkers int
}

// NewConcurrentStrategy creates a new concurrent strategy; maxWorkers <= 0
// means one goroutine per CPU.
func NewConcurrentStrategy(maxWorkers int) ExecutionStrategy {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &ConcurrentStrategy{maxWorkers: maxWorkers}
}

// Execute runs the tasks and returns the error of the lowest-index failed task
func (s *ConcurrentStrategy) Execute(tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, len(tasks))
	sem := make(chan struct{}, s.maxWorkers)

	for i, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, task Task) {
			defer func() {
				<-sem
				wg.Done()
			}()
			errs[i] = task()
		}(i, task)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// GetStrategyName returns the strategy name
func (s *ConcurrentStrategy) GetStrategyName() string {
	return ConcurrentName
}

// ForName returns the strategy registered under name
func ForName(name string, maxWorkers int) (ExecutionStrategy, error) {
	switch name {
	case SequentialName, "":
		return NewSequentialStrategy(), nil
	case ConcurrentName:
		return NewConcurrentStrategy(maxWorkers), nil
	default:
		return nil, fmt.Errorf("unknown execution strategy %q", name)
	}
}
