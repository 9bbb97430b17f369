package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bitdao/governor/pkg/dao"
)

type Message struct {
	Content string `json:"content"`
}

// Messager posts governance notifications and operational messages to an
// external webhook (e.g. a Discord channel).
type Messager struct {
	BaseURL      string
	InstanceName string

	notify bool
}

func NewMessager(baseURL, instanceName string, notify bool) *Messager {
	return &Messager{
		BaseURL:      baseURL,
		InstanceName: instanceName,
		notify:       notify,
	}
}

func (m *Messager) post(content string) error {
	if !m.notify {
		return nil
	}

	data, err := json.Marshal(Message{Content: fmt.Sprintf("[%s] %s", m.InstanceName, content)})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return errors.New("error sending message")
	}

	return nil
}

func (m *Messager) Notify(message string) error {
	return m.post(message)
}

func (m *Messager) NotifyWarning(errorMessage error) error {
	return m.post(fmt.Sprintf("warning: %s", errorMessage.Error()))
}

func (m *Messager) NotifyError(errorMessage error) error {
	return m.post(fmt.Sprintf("error: %s", errorMessage.Error()))
}

// Process delivers a governance event. Implements the notification queue's
// processor.
func (m *Messager) Process(ev dao.Event) error {
	switch ev.Kind {
	case dao.EventKindVoteCast:
		return m.post(fmt.Sprintf("vote cast on proposal %d by %s", ev.ProposalID, ev.Voter))
	case dao.EventKindProposalExecuted:
		return m.post(fmt.Sprintf("proposal %d executed", ev.ProposalID))
	case dao.EventKindPermissionGranted:
		return m.post(fmt.Sprintf("permission %s granted to %s on %s", ev.Permission, ev.Actor, ev.Resource))
	default:
		return fmt.Errorf("unknown event kind: %s", ev.Kind)
	}
}
