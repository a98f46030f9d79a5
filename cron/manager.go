package cron

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dailyyoga/dashsync/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// chainJob runs its tasks in order with a fresh Shared value per run.
// Overlapping runs of one chain, scheduled or RunNow, share one execution.
type chainJob struct {
	name   string
	tasks  []Task
	logger logger.Logger
	ctx    context.Context
	flight *singleflight.Group
}

// Run implements cron.Job.
func (j *chainJob) Run() {
	_ = j.join(j.ctx)
}

// join runs the chain, or waits for the run already in progress. A caller
// whose ctx ends stops waiting; the run itself carries on.
func (j *chainJob) join(ctx context.Context) error {
	ch := j.flight.DoChan(j.name, func() (any, error) {
		return nil, j.run(ctx)
	})
	select {
	case res := <-ch:
		if res.Shared {
			j.logger.Debug("chain run joined in-progress execution", zap.String("chain_name", j.name))
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes the chain; the first failing task aborts it.
func (j *chainJob) run(ctx context.Context) error {
	ctx = withShared(ctx, &Shared{})

	j.logger.Debug("chain job started", zap.String("chain_name", j.name))
	for _, task := range j.tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := task.Run(ctx); err != nil {
			j.logger.Error("chain job aborted due to task failure",
				zap.String("chain_name", j.name),
				zap.String("task_name", task.Name()),
				zap.Error(err),
			)
			return err
		}
	}
	j.logger.Debug("chain job completed", zap.String("chain_name", j.name))
	return nil
}

// cronManager is the default implementation of the Cron interface
type cronManager struct {
	cron        *cron.Cron
	middlewares []Middleware
	logger      logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc

	mu     sync.Mutex
	chains map[string]*chainJob
	closed bool
	flight singleflight.Group
}

func newCronManager(log logger.Logger, mws ...Middleware) *cronManager {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{log: log}
	return &cronManager{
		cron: cron.New(
			cron.WithParser(specParser),
			cron.WithLogger(cl),
			// a sweep still running when the next one is due is skipped, not stacked
			cron.WithChain(cron.SkipIfStillRunning(cl)),
		),
		middlewares: mws,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
		chains:      make(map[string]*chainJob),
	}
}

// Start begins the cron scheduler
func (m *cronManager) Start() {
	m.cron.Start()
}

// Close stops the scheduler, cancels running chains and waits for them.
func (m *cronManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	<-m.cron.Stop().Done()
}

// AddTasks adds a chain of tasks to be executed according to the cron spec.
// Examples: "@every 30s", "0 */5 * * * *", "*/5 * * * *".
func (m *cronManager) AddTasks(name, spec string, tasks ...Task) error {
	if len(tasks) == 0 {
		return ErrNoTasks
	}

	wrappedTasks := make([]Task, len(tasks))
	for i, task := range tasks {
		wrapTask := &wrappedTask{
			name: fmt.Sprintf("%s:%s", name, task.Name()),
			exec: task.Run,
		}
		wrappedTasks[i] = applyMiddlewares(wrapTask, m.middlewares...)
	}

	job := &chainJob{
		name:   name,
		tasks:  wrappedTasks,
		logger: m.logger,
		ctx:    m.ctx,
		flight: &m.flight,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrCronClosed
	}
	if _, ok := m.chains[name]; ok {
		return ErrDuplicateChain(name)
	}
	if _, err := m.cron.AddJob(spec, job); err != nil {
		return ErrSpec(spec, err)
	}
	m.chains[name] = job

	m.logger.Info("chain added",
		zap.String("chain_name", name),
		zap.String("spec", spec),
		zap.Int("task_count", len(tasks)),
	)
	return nil
}

// AddChain is AddTasks for a Chain value
func (m *cronManager) AddChain(chain Chain) error {
	return m.AddTasks(chain.Name, chain.Spec, chain.Tasks...)
}

// RunNow runs the named chain once and waits for it. If the chain is
// already running, RunNow waits for that run and returns its result.
func (m *cronManager) RunNow(ctx context.Context, name string) error {
	m.mu.Lock()
	job, ok := m.chains[name]
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrCronClosed
	}
	if !ok {
		return ErrUnknownChain(name)
	}
	return job.join(ctx)
}

// Chains returns the registered chain names, sorted.
func (m *cronManager) Chains() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.chains))
	for name := range m.chains {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// cronLogger routes robfig/cron's own logging into zap.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), zap.Error(err))...)
}

func fields(keysAndValues []any) []zap.Field {
	out := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, zap.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return out
}
