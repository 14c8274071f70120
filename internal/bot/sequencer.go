package bot

import "sync"

const sequencerBuffer = 128

// sequencer executes submitted work per key in submission order, one
// task at a time, while distinct keys run in parallel. The ordering
// guarantee requires that Submit is called from a single goroutine;
// the update polling loop is that goroutine. Workers are never torn
// down, so the map grows with the number of distinct keys seen.
type sequencer struct {
	mu     sync.Mutex
	queues map[int64]chan func()
}

func newSequencer() *sequencer {
	return &sequencer{queues: make(map[int64]chan func())}
}

func (s *sequencer) Submit(key int64, task func()) {
	s.mu.Lock()
	queue, ok := s.queues[key]
	if !ok {
		queue = make(chan func(), sequencerBuffer)
		s.queues[key] = queue
		go func() {
			for task := range queue {
				task()
			}
		}()
	}
	s.mu.Unlock()

	queue <- task
}
