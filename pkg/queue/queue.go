package queue

import (
	"log"
	"time"

	"github.com/bitdao/governor/pkg/dao"
)

// Service delivers governance event notifications in the background.
// Delivery is best effort with retries; events are observability only and
// never feed back into governance state.
type Service struct {
	queue      chan dao.Event
	quit       chan bool
	maxRetries int

	wm dao.WebhookMessager
}

type Processor interface {
	Process(dao.Event) error
}

func NewService(maxRetries, size int, wm dao.WebhookMessager) *Service {
	return &Service{
		queue:      make(chan dao.Event, size),
		quit:       make(chan bool),
		maxRetries: maxRetries,
		wm:         wm,
	}
}

// Emit enqueues an event for delivery. Never blocks the caller: when the
// queue is full the event is dropped and logged.
func (s *Service) Emit(ev dao.Event) {
	select {
	case s.queue <- ev:
	default:
		log.Default().Printf("notification queue full, dropping %s event\n", ev.Kind)
	}
}

func (s *Service) Close() {
	s.quit <- true
}

func (s *Service) Start(p Processor) error {
	for {
		select {
		case ev := <-s.queue:
			err := p.Process(ev)
			if err != nil {
				// if there is an error, requeue the event
				if ev.RetryCount < s.maxRetries {
					ev.RetryCount++
					s.Emit(ev)
					if len(s.queue) == 1 {
						// if the queue was empty, we need to wait a bit
						// to avoid a busy loop
						extraWait := time.Duration(ev.RetryCount) * time.Second
						time.Sleep(extraWait)
					}
					continue
				}

				s.wm.NotifyError(err)
			}
		case <-s.quit:
			// quit the service
			return nil
		}
	}
}
