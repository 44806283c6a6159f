package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/exposure-timer/internal/logger"
	"github.com/sweeney/exposure-timer/internal/logic"
)

// bufferCapacity bounds the messages held while the broker is unreachable.
const bufferCapacity = 256

const publishTimeout = 5 * time.Second

// client is the subset of paho.Client the publisher uses.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker. Publish only queues the
// message; a sender goroutine waits on the broker, so a stalled connection
// never holds up the control loop. Messages queued while disconnected are
// replayed, oldest first, when the connection comes back.
type RealPublisher struct {
	client  client
	log     *logger.Logger
	bootID  string
	timeout time.Duration
	now     func() time.Time

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	running   bool
	closeOnce sync.Once

	mu       sync.Mutex
	pending  *ringBuffer
	connects int
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is made in the background and retried until it succeeds, so the timer
// runs normally with no network.
func NewRealPublisher(broker, clientID, bootID string, log *logger.Logger) *RealPublisher {
	p := newPublisher(nil, bootID, log)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}, bootID)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnw("mqtt connection lost", "error", err)
		})

	c := paho.NewClient(opts)
	p.client = c
	p.start()
	c.Connect()
	log.Infow("mqtt connecting", "broker", broker, "client_id", clientID)
	return p
}

func newPublisher(c client, bootID string, log *logger.Logger) *RealPublisher {
	return &RealPublisher{
		client:  c,
		log:     log,
		bootID:  bootID,
		timeout: publishTimeout,
		now:     time.Now,
		pending: newRingBuffer(bufferCapacity),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (p *RealPublisher) start() {
	p.running = true
	go p.run()
}

func (p *RealPublisher) run() {
	defer close(p.done)
	for {
		select {
		case <-p.wake:
			p.flush()
		case <-p.quit:
			p.flush()
			return
		}
	}
}

func (p *RealPublisher) kick() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// flush sends queued messages oldest first while connected. On a failed send
// that message and the ones after it go back to the front of the queue.
func (p *RealPublisher) flush() {
	if !p.client.IsConnectionOpen() {
		return
	}
	p.mu.Lock()
	msgs := p.pending.drainAll()
	p.mu.Unlock()

	for i, m := range msgs {
		if err := p.send(m); err != nil {
			p.log.Warnw("mqtt publish failed", "topic", m.topic, "error", err, "queued", len(msgs)-i)
			p.mu.Lock()
			p.pending.prepend(msgs[i:])
			p.mu.Unlock()
			return
		}
	}
}

// onConnect schedules a replay of queued messages and, on every connection
// after the first, announces the reconnect.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	p.connects++
	reconnect := p.connects > 1
	queued := p.pending.len()
	p.mu.Unlock()

	p.log.Infow("mqtt connected", "replaying", queued, "reconnect", reconnect)

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"}, p.bootID)
		p.buffer(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
	}
	p.kick()
}

// Publish sends a controller event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event, p.bootID)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event, p.bootID)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) - we want to ensure delivery
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(m bufferedMsg) error {
	p.buffer(m)
	p.kick()
	return nil
}

func (p *RealPublisher) send(m bufferedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

func (p *RealPublisher) buffer(m bufferedMsg) {
	p.mu.Lock()
	dropped := p.pending.push(m)
	p.mu.Unlock()
	if dropped {
		p.log.Warnw("mqtt buffer full, dropping oldest", "capacity", bufferCapacity)
	}
}

// Buffered returns the number of messages waiting to be sent.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close gives the sender one publish timeout to deliver what is queued,
// then disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.quit)
		if p.running {
			select {
			case <-p.done:
			case <-time.After(p.timeout):
				p.log.Warnw("mqtt close with messages queued", "queued", p.Buffered())
			}
		}
		p.client.Disconnect(1000) // 1 second timeout
	})
	return nil
}
