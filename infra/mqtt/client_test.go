package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corner-25/test-umc-sub000/core/alerts"
	"github.com/corner-25/test-umc-sub000/core/fleet"
	coremon "github.com/corner-25/test-umc-sub000/core/monitoring"
)

func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	caFile = filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o644))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o644))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o644))
	return
}

func useMock(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	tlsCfg, err := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, tlsCfg.Certificates, 1)
	assert.NotNil(t, tlsCfg.RootCAs)

	tlsCfg, err = Config{UseTLS: true, CABundle: ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Empty(t, tlsCfg.Certificates)

	_, err = Config{UseTLS: true, ClientCert: cert}.LoadTLSConfig()
	assert.Error(t, err)
}

func TestNewClientOptions(t *testing.T) {
	cfg := Config{Broker: "tcp://localhost:1883", Username: "u", Password: "p"}
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.Equal(t, "umc-fleet-report", opts.ClientID)
	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "umc/fleet/status", opts.WillTopic)
	assert.Equal(t, "offline", string(opts.WillPayload))
	assert.True(t, opts.WillRetained)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())
	assert.Error(t, Config{Enabled: true, Broker: "tcp://x:1883", QoS: 3}.Validate())
	c := Config{TopicPrefix: "hospital/fleet/"}
	c.SetDefaults()
	assert.Equal(t, "hospital/fleet/overloads/driver", c.Topic("overloads", "driver"))
}

func TestConnectAnnouncesOnline(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", QoS: 1})
	require.NoError(t, err)
	require.Len(t, mc.published, 1)
	assert.Equal(t, "umc/fleet/status", mc.published[0].topic)
	assert.Equal(t, "online", mc.published[0].payload)
	assert.True(t, mc.published[0].retained)

	cli.Close()
	require.Len(t, mc.published, 2)
	assert.Equal(t, "offline", mc.published[1].payload)
	assert.True(t, mc.disconnected)
}

func TestPublishJSONRetries(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", QoS: 2, MaxRetries: 2, BackoffMS: 1})
	require.NoError(t, err)
	mc.publishErrs = []error{errors.New("net fail"), nil}

	require.NoError(t, cli.PublishJSON(context.Background(), "umc/fleet/test", map[string]int{"n": 1}))
	sent := mc.published[1:]
	require.Len(t, sent, 2)
	assert.Equal(t, byte(2), sent[1].qos)
	assert.JSONEq(t, `{"n":1}`, sent[1].payload)
}

type recordMonitor struct {
	err  error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.err = err
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestPublishJSONFailureCaptured(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	cli, err := NewClient(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)
	fail := errors.New("net fail")
	mc.publishErrs = []error{fail, fail}

	err = cli.PublishJSON(context.Background(), "umc/fleet/x", 1)
	assert.ErrorIs(t, err, fail)
	assert.Len(t, mc.published, 3)
	require.Error(t, mon.err)
	assert.Equal(t, "mqtt", mon.tags["module"])
	assert.Equal(t, "umc/fleet/x", mon.tags["topic"])
}

func TestPublishJSONNotConnected(t *testing.T) {
	mc := &mockClient{offline: true}
	c := &Client{cli: mc}
	assert.ErrorIs(t, c.PublishJSON(context.Background(), "t", 1), ErrNotConnected)
}

func TestAlertNotifierTopic(t *testing.T) {
	mc := &mockClient{}
	useMock(t, mc)
	cli, err := NewClient(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)
	n := NewAlertNotifier(cli)

	day := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	a := alerts.Alert{
		BatchID: "b1",
		Source:  "march.xlsx",
		Overload: fleet.Overload{
			Subject: fleet.SubjectDriver, Key: "Nguyễn Văn An", Day: day,
			Metric: fleet.MetricHours, Value: 13, Limit: 10, Severity: fleet.SeverityCritical,
		},
	}
	require.NoError(t, n.Notify(context.Background(), a))
	last := mc.published[len(mc.published)-1]
	assert.Equal(t, "umc/fleet/overloads/driver/critical", last.topic)

	var got alerts.Alert
	require.NoError(t, json.Unmarshal([]byte(last.payload), &got))
	assert.Equal(t, "b1", got.BatchID)
	assert.Equal(t, 13.0, got.Overload.Value)
	assert.True(t, day.Equal(got.Overload.Day))
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// mockClient implements paho.Client for tests.
type mockClient struct {
	opts         *paho.ClientOptions
	published    []published
	publishErrs  []error
	offline      bool
	disconnected bool
}

func (m *mockClient) IsConnected() bool { return !m.offline }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.disconnected = true }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	var p string
	switch v := payload.(type) {
	case string:
		p = v
	case []byte:
		p = string(v)
	}
	m.published = append(m.published, published{topic, qos, retained, p})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(string, byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return !m.offline }

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }
