package utils

import (
	"hash/fnv"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	TASK_CHAN_SIZE = 100
)

type WorkerFunction[T any] func(t *tomb.Tomb, shard int, task T) error

// ShardPool runs one worker per shard. Tasks sharing a key always land on
// the same shard and are worked in the order they were added, so a shard
// can own state for its keys without locking.
type ShardPool[T any] struct {
	n     int               // number of workers
	tasks []chan T          // per shard task queues
	work  WorkerFunction[T] // do work method
}

func NewShardPool[T any](size int, work WorkerFunction[T]) *ShardPool[T] {
	size = max(size, 1)
	tasks := make([]chan T, size)
	for i := range tasks {
		tasks[i] = make(chan T, TASK_CHAN_SIZE)
	}
	return &ShardPool[T]{
		n:     size,
		tasks: tasks,
		work:  work,
	}
}

// Len is the number of shards.
func (pool *ShardPool[T]) Len() int { return pool.n }

// Setup starts the workers under the tomb.
func (pool *ShardPool[T]) Setup(t *tomb.Tomb) {
	for id := range pool.tasks {
		t.Go(func() error {
			return pool.worker(t, id)
		})
	}
}

// Shard maps a key to its shard.
func (pool *ShardPool[T]) Shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(pool.n))
}

// AddTask queues a task on the shard of key. It blocks while the shard's
// queue is full and gives up once the tomb is dying.
func (pool *ShardPool[T]) AddTask(t *tomb.Tomb, key string, task T) error {
	select {
	case pool.tasks[pool.Shard(key)] <- task:
		return nil
	case <-t.Dying():
		return tomb.ErrDying
	}
}

// Close stops accepting tasks. Workers exit once their queues drain.
func (pool *ShardPool[T]) Close() {
	for _, tasks := range pool.tasks {
		close(tasks)
	}
}

// Workers wait on tasks in their shard queue and action them.
func (pool *ShardPool[T]) worker(t *tomb.Tomb, id int) error {
	for task := range pool.tasks[id] {
		select {
		case <-t.Dying():
			return nil
		default:
		}
		if err := pool.work(t, id, task); err != nil {
			if err == tomb.ErrDying {
				return err
			}
			log.Error().Err(err).Int("shard", id).Msg("worker exiting")
			return err
		}
	}
	return nil
}
