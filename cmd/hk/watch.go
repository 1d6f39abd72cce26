package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/alfredjeanlab/hackops/internal/events"
	"github.com/alfredjeanlab/hackops/internal/model"
	"github.com/alfredjeanlab/hackops/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch [<hackathon-id>]",
	Short:   "Stream hackops events",
	GroupID: "system",
	Long: `Streams events from NATS when a NATS URL is known (--nats, HK_NATS_URL
or the active remote). Without NATS it polls the audit log of the given
hackathon instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hid string
		if len(args) == 1 {
			hid = args[0]
		}
		topic, _ := cmd.Flags().GetString("topic")
		interval, _ := cmd.Flags().GetDuration("interval")
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("HK_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if natsURL != "" {
			return watchNATS(ctx, cmd.OutOrStdout(), natsURL, topic, hid)
		}
		if hid == "" {
			return fmt.Errorf("no NATS URL configured; polling needs a hackathon ID")
		}
		return watchPoll(ctx, cmd.OutOrStdout(), hid, interval)
	},
}

// watchNATS prints every event on topic until ctx is done. A non-empty
// hackathonID restricts the stream to that hackathon.
func watchNATS(ctx context.Context, w io.Writer, natsURL, topic, hackathonID string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	var (
		ch     <-chan events.Message
		cancel func()
	)
	if hackathonID != "" {
		ch, cancel, err = sub.SubscribeHackathon(topic, hackathonID)
	} else {
		ch, cancel, err = sub.Subscribe(topic)
	}
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := printMessage(w, msg, time.Now()); err != nil {
				return err
			}
		}
	}
}

// watchPoll prints audit events of a hackathon newer than the last one seen.
func watchPoll(ctx context.Context, w io.Writer, hackathonID string, interval time.Duration) error {
	var lastID int64
	for {
		evts, err := hkClient.ListEvents(ctx, hackathonID, 100)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var fresh []*model.Event
		fresh, lastID = newEvents(evts, lastID)
		for _, e := range fresh {
			msg := events.Message{Topic: e.Topic, HackathonID: e.HackathonID, Data: e.Payload}
			if err := printMessage(w, msg, e.CreatedAt); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// newEvents returns the events with an ID above lastID in ascending ID
// order, and the highest ID seen.
func newEvents(evts []*model.Event, lastID int64) ([]*model.Event, int64) {
	var fresh []*model.Event
	for _, e := range evts {
		if e.ID > lastID {
			fresh = append(fresh, e)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].ID < fresh[j].ID })
	if n := len(fresh); n > 0 {
		lastID = fresh[n-1].ID
	}
	return fresh, lastID
}

func printMessage(w io.Writer, msg events.Message, at time.Time) error {
	if jsonOutput {
		return printJSON(w, struct {
			Topic       string          `json:"topic"`
			HackathonID string          `json:"hackathon_id,omitempty"`
			At          time.Time       `json:"at"`
			Data        json.RawMessage `json:"data,omitempty"`
		}{msg.Topic, msg.HackathonID, at, json.RawMessage(msg.Data)})
	}
	_, err := fmt.Fprintf(w, "%s  %s  %s  %s\n",
		ui.RenderMuted(at.Format("15:04:05")),
		ui.RenderAccent(msg.Topic),
		msg.HackathonID,
		truncate(string(msg.Data), 100))
	return err
}

func init() {
	watchCmd.Flags().String("topic", events.AllTopics, "NATS subject to watch (wildcards allowed)")
	watchCmd.Flags().String("nats", "", "NATS URL")
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval without NATS")
}
