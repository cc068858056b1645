package opcuabench

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/variousdemeanors/pi-mcp2515/internal/domain"
	"github.com/variousdemeanors/pi-mcp2515/internal/ports"
	"github.com/variousdemeanors/pi-mcp2515/internal/wire"
)

// Config captures the details required to read the two pressure tags from a
// bench-rig OPC UA server.
type Config struct {
	Endpoint        string        `yaml:"endpoint"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	ChannelANode    string        `yaml:"channel_a_node"`
	ChannelBNode    string        `yaml:"channel_b_node"`
	PublishInterval time.Duration `yaml:"publish_interval"`
	SendInterval    time.Duration `yaml:"send_interval"`
}

func (c *Config) ApplyDefaults() {
	if c.PublishInterval <= 0 {
		c.PublishInterval = 250 * time.Millisecond
	}
	if c.SendInterval <= 0 {
		c.SendInterval = time.Second
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if c.ChannelANode == "" || c.ChannelBNode == "" {
		return errors.New("both channel_a_node and channel_b_node are required")
	}
	return nil
}

// Source subscribes to the two pressure tags and synthesizes wire records at
// the transmitter's send cadence, so the receiving pipeline behaves identically
// whether fed from the radio bridge or the bench rig. Sequence numbers start at
// 1 and the timestamp field carries milliseconds since the source started,
// matching the transmitter firmware.
type Source struct {
	cfg Config

	mu      sync.Mutex
	client  *opcua.Client
	sub     *opcua.Subscription
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup

	valMu  sync.Mutex
	lastA  float64
	lastB  float64
	gotany bool
}

const (
	handleChannelA = 1
	handleChannelB = 2
)

func NewSource(cfg Config) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{cfg: cfg}, nil
}

func (s *Source) Start(out chan<- []byte) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("opcua bench source already started")
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())

	client, err := opcua.NewClient(s.cfg.Endpoint, s.clientOptions()...)
	if err != nil {
		cancel()
		return fmt.Errorf("opcua new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		cancel()
		return fmt.Errorf("opcua connect: %w", err)
	}

	notifyCh := make(chan *opcua.PublishNotificationData, 8)
	sub, err := client.Subscribe(ctx, &opcua.SubscriptionParameters{
		Interval: s.cfg.PublishInterval,
	}, notifyCh)
	if err != nil {
		cancel()
		_ = client.Close(ctx)
		return fmt.Errorf("opcua subscribe: %w", err)
	}

	for _, node := range []struct {
		id     string
		handle uint32
	}{
		{s.cfg.ChannelANode, handleChannelA},
		{s.cfg.ChannelBNode, handleChannelB},
	} {
		nodeID, err := ua.ParseNodeID(node.id)
		if err != nil {
			s.cleanupOnError(ctx, cancel, sub, client)
			return fmt.Errorf("parse node id %q: %w", node.id, err)
		}
		req := opcua.NewMonitoredItemCreateRequestWithDefaults(nodeID, ua.AttributeIDValue, node.handle)
		res, err := sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
		if err != nil {
			s.cleanupOnError(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q: %w", node.id, err)
		}
		if len(res.Results) == 0 || res.Results[0].StatusCode != ua.StatusOK {
			s.cleanupOnError(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q failed", node.id)
		}
	}

	s.mu.Lock()
	s.client = client
	s.sub = sub
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.consume(ctx, notifyCh)
	go s.transmit(ctx, out)
	return nil
}

func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	sub := s.sub
	client := s.client
	s.started = false
	s.cancel = nil
	s.sub = nil
	s.client = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()

	var err error
	if sub != nil {
		if e := sub.Cancel(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}
	if client != nil {
		if e := client.Close(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}

	s.wg.Wait()
	return err
}

func (s *Source) consume(ctx context.Context, ch <-chan *opcua.PublishNotificationData) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-ch:
			if notif == nil {
				continue
			}
			if notif.Error != nil {
				log.Printf("opcua bench: notification error: %v", notif.Error)
				continue
			}
			s.applyNotification(notif.Value)
		}
	}
}

func (s *Source) applyNotification(val interface{}) {
	data, ok := val.(*ua.DataChangeNotification)
	if !ok {
		return
	}

	for _, item := range data.MonitoredItems {
		fv, ok := variantToFloat(item.Value.Value)
		if !ok {
			continue
		}

		s.valMu.Lock()
		switch item.ClientHandle {
		case handleChannelA:
			s.lastA = fv
			s.gotany = true
		case handleChannelB:
			s.lastB = fv
			s.gotany = true
		}
		s.valMu.Unlock()
	}
}

// transmit plays the role of the transmitter firmware's send loop: every
// SendInterval it encodes the latest readings with the next sequence number.
func (s *Source) transmit(ctx context.Context, out chan<- []byte) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SendInterval)
	defer ticker.Stop()

	start := time.Now()
	var seq uint32

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.valMu.Lock()
			ready := s.gotany
			a, b := s.lastA, s.lastB
			s.valMu.Unlock()
			if !ready {
				continue
			}

			seq++
			frame := wire.Encode(domain.Sample{
				ChannelA:   a,
				ChannelB:   b,
				SentMillis: uint32(time.Since(start) / time.Millisecond),
				Seq:        seq,
			})

			select {
			case <-ctx.Done():
				return
			case out <- frame:
			default:
			}
		}
	}
}

func (s *Source) clientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString("None"),
		opcua.SecurityPolicy("None"),
		opcua.ApplicationName("Presslink Bench"),
		opcua.AutoReconnect(true),
	}
	if s.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(s.cfg.Username, s.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func (s *Source) cleanupOnError(ctx context.Context, cancel context.CancelFunc, sub *opcua.Subscription, client *opcua.Client) {
	cancel()
	if sub != nil {
		_ = sub.Cancel(ctx)
	}
	if client != nil {
		_ = client.Close(ctx)
	}
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

var _ ports.FrameSource = (*Source)(nil)
