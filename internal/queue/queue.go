// Package queue is the in-process task queue behind the long-running
// pipeline steps (criteria derivation, resume analysis). Bounded depth,
// fixed worker pool, one timeout per task. Nothing is retried; a failed
// task is reported once on the hub and dropped.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"hirebot-engine/internal/events"
)

var ErrFull = errors.New("task queue is full")

type Task struct {
	Name   string
	ChatID string
	Run    func(ctx context.Context) error
}

type Queue struct {
	tasks       chan Task
	workers     int
	taskTimeout time.Duration
	hub         *events.Hub
}

func New(depth, workers int, taskTimeout time.Duration, hub *events.Hub) *Queue {
	if depth <= 0 {
		depth = 64
	}
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		tasks:       make(chan Task, depth),
		workers:     workers,
		taskTimeout: taskTimeout,
		hub:         hub,
	}
}

// Enqueue never blocks a command handler; a full queue is an immediate
// failure for that invocation.
func (q *Queue) Enqueue(t Task) error {
	select {
	case q.tasks <- t:
		return nil
	default:
		return ErrFull
	}
}

func (q *Queue) Len() int { return len(q.tasks) }

// Start runs the worker pool until ctx is cancelled and all in-flight
// tasks have finished.
func (q *Queue) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case t := <-q.tasks:
					q.runOne(ctx, t)
				}
			}
		})
	}
	return g.Wait()
}

func (q *Queue) runOne(ctx context.Context, t Task) {
	tctx := ctx
	var cancel context.CancelFunc
	if q.taskTimeout > 0 {
		tctx, cancel = context.WithTimeout(ctx, q.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[queue] panic in task %s: %v", t.Name, r)
			q.publish("task_panic", t, fmt.Sprint(r))
		}
	}()

	log.Printf("[queue] running task=%s user=%s", t.Name, t.ChatID)
	if err := t.Run(tctx); err != nil {
		log.Printf("[queue] task %s failed: %v", t.Name, err)
		q.publish("task_failed", t, err.Error())
		return
	}
	q.publish("task_done", t, "")
}

func (q *Queue) publish(typ string, t Task, detail string) {
	if q.hub == nil {
		return
	}
	if detail == "" {
		detail = t.Name
	} else {
		detail = t.Name + ": " + detail
	}
	q.hub.Publish(events.New(typ, t.ChatID, detail))
}
