package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/ridedispatch/core/model"
	coremqtt "github.com/kilianp07/ridedispatch/core/mqtt"
	"github.com/kilianp07/ridedispatch/infra/logger"
)

// DefaultTopicPrefix is the root of every topic used by the service.
const DefaultTopicPrefix = "ridesim"

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string          `json:"broker"`
	ClientID    string          `json:"client_id"`
	Username    string          `json:"username"`
	Password    string          `json:"password"`
	TopicPrefix string          `json:"topic_prefix"`
	UseTLS      bool            `json:"use_tls"`
	ClientCert  string          `json:"client_cert"`
	ClientKey   string          `json:"client_key"`
	CABundle    string          `json:"ca_bundle"`
	AuthMethod  string          `json:"auth_method"`
	QoS         map[string]byte `json:"qos"`
	LWTTopic    string          `json:"lwt_topic"`
	LWTPayload  string          `json:"lwt_payload"`
	LWTQoS      byte            `json:"lwt_qos"`
	LWTRetain   bool            `json:"lwt_retain"`
	MaxRetries  int             `json:"max_retries"`
	BackoffMS   int             `json:"backoff_ms"`

	// PublishTimeoutMS bounds the wait for a publish token. Zero waits forever.
	PublishTimeoutMS int         `json:"publish_timeout_ms"`
	TLSConfig        *tls.Config `json:"-"`
}

// SetDefaults fills in the topic prefix, client id and retry policy.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.ClientID == "" {
		c.ClientID = "ridedispatch-" + uuid.NewString()[:8]
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	for k, q := range c.QoS {
		if q > 2 {
			return fmt.Errorf("mqtt qos %q must be 0, 1 or 2", k)
		}
	}
	return nil
}

// PositionTopic is the topic a driver publishes its position to.
func PositionTopic(prefix, driverID string) string {
	return fmt.Sprintf("%s/drivers/%s/position", prefix, driverID)
}

// AssignmentTopic is the topic a driver receives assignments on.
func AssignmentTopic(prefix, driverID string) string {
	return fmt.Sprintf("%s/drivers/%s/assignment", prefix, driverID)
}

// driverFromTopic extracts the driver id of a position topic.
func driverFromTopic(prefix, topic string) string {
	rest, ok := strings.CutPrefix(topic, prefix+"/drivers/")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(rest, "/")
	return id
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements coremqtt.Client using Eclipse Paho and feeds
// received driver positions to a handler.
type PahoClient struct {
	cli        pahoClient
	prefix     string
	qos        map[string]byte
	onPosition coremqtt.PositionHandler
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	now        func() time.Time
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the broker. When onPosition is not nil the client
// subscribes to every driver position topic on each (re)connection.
func NewPahoClient(cfg Config, onPosition coremqtt.PositionHandler) (*PahoClient, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		onPosition: onPosition,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		timeout:    time.Duration(cfg.PublishTimeoutMS) * time.Millisecond,
		now:        time.Now,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if pc.onPosition == nil {
			return
		}
		topic := PositionTopic(pc.prefix, "+")
		if token := c.Subscribe(topic, pc.qosFor("position"), pc.handlePosition); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", topic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

// DecodePosition parses a position payload. The driver id falls back to
// the one carried by the topic and a missing timestamp to now.
func DecodePosition(prefix, topic string, payload []byte, now time.Time) (coremqtt.PositionReport, error) {
	var rep coremqtt.PositionReport
	if err := json.Unmarshal(payload, &rep); err != nil {
		return rep, fmt.Errorf("%w: %v", coremqtt.ErrInvalidPayload, err)
	}
	if rep.DriverID == "" {
		rep.DriverID = driverFromTopic(prefix, topic)
	}
	if rep.DriverID == "" {
		return rep, fmt.Errorf("%w: missing driver id", coremqtt.ErrInvalidPayload)
	}
	if rep.Timestamp.IsZero() {
		rep.Timestamp = now
	}
	if err := rep.Driver().Position.Validate(); err != nil {
		return rep, fmt.Errorf("%w: %v", coremqtt.ErrInvalidPayload, err)
	}
	return rep, nil
}

func (p *PahoClient) handlePosition(_ paho.Client, msg paho.Message) {
	rep, err := DecodePosition(p.prefix, msg.Topic(), msg.Payload(), p.now())
	if err != nil {
		p.logger.Warnf("drop message on %s: %v", msg.Topic(), err)
		return
	}
	p.onPosition(rep.Driver())
}

// SendAssignment publishes a to the driver's assignment topic. An empty
// assignment id is replaced by a new uuid.
func (p *PahoClient) SendAssignment(a coremqtt.Assignment) (string, error) {
	if a.AssignmentID == "" {
		a.AssignmentID = uuid.NewString()
	}
	if a.IssuedAt.IsZero() {
		a.IssuedAt = p.now()
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	topic := AssignmentTopic(p.prefix, a.DriverID)
	if err := p.publish(topic, p.qosFor("assignment"), payload); err != nil {
		return "", err
	}
	p.logger.Infof("sent assignment %s to %s", a.AssignmentID, topic)
	return a.AssignmentID, nil
}

// PublishPosition publishes a driver position report.
func (p *PahoClient) PublishPosition(d model.Driver) error {
	ts := d.SeenAt
	if ts.IsZero() {
		ts = p.now()
	}
	payload, err := json.Marshal(coremqtt.PositionReport{DriverID: d.ID, Lat: d.Position.Lat, Lon: d.Position.Lon, Timestamp: ts})
	if err != nil {
		return err
	}
	return p.publish(PositionTopic(p.prefix, d.ID), p.qosFor("position"), payload)
}

func (p *PahoClient) publish(topic string, qos byte, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, false, payload)
		if p.timeout > 0 {
			if !token.WaitTimeout(p.timeout) {
				publishErr = fmt.Errorf("%s: %w", topic, coremqtt.ErrPublishTimeout)
			} else {
				publishErr = token.Error()
			}
		} else {
			token.Wait()
			publishErr = token.Error()
		}
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return publishErr
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
