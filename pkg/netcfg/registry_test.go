package netcfg

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseConfig
	Name string `json:"name"`
}

func (c *testConfig) Init(subject, key string, raw []byte) error {
	if err := c.BaseConfig.Init(subject, key, raw); err != nil {
		return err
	}
	return c.Decode(c)
}

func (c *testConfig) IsValid() bool {
	return c.Name != "invalid"
}

var testFactory = &Factory{
	SubjectClassKey: SubjectClassApps,
	ConfigKey:       "TestConfig",
	Create:          func() Config { return &testConfig{} },
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Event(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestApplyAddThenUpdate(t *testing.T) {
	r := NewRegistry(nil)
	rec := &recorder{}
	r.AddListener(rec)
	require.NoError(t, r.RegisterConfigFactory(testFactory))

	_, err := r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"one"}`))
	require.NoError(t, err)
	_, err = r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"one"}`))
	require.NoError(t, err)
	_, err = r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"two"}`))
	require.NoError(t, err)

	assert.Equal(t, []EventType{ConfigRegistered, ConfigAdded, ConfigUpdated}, rec.types())

	cfg, ok := r.GetConfig(SubjectClassApps, "app", "TestConfig")
	require.True(t, ok)
	assert.Equal(t, "two", cfg.(*testConfig).Name)
	assert.Equal(t, "one", rec.events[2].PrevConfig.(*testConfig).Name)
}

func TestPendingConfigMaterialisesOnRegister(t *testing.T) {
	r := NewRegistry(nil)
	rec := &recorder{}
	r.AddListener(rec)

	cfg, err := r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"early"}`))
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, ok := r.GetConfig(SubjectClassApps, "app", "TestConfig")
	assert.False(t, ok)

	require.NoError(t, r.RegisterConfigFactory(testFactory))

	got, ok := r.GetConfig(SubjectClassApps, "app", "TestConfig")
	require.True(t, ok)
	assert.Equal(t, "early", got.(*testConfig).Name)
	assert.Equal(t, []EventType{ConfigRegistered, ConfigAdded}, rec.types())

	r.UnregisterConfigFactory(testFactory)
	_, ok = r.GetConfig(SubjectClassApps, "app", "TestConfig")
	assert.False(t, ok)

	require.NoError(t, r.RegisterConfigFactory(testFactory))
	_, ok = r.GetConfig(SubjectClassApps, "app", "TestConfig")
	assert.True(t, ok, "config should survive factory re-registration")
}

func TestApplyRejectsInvalid(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterConfigFactory(testFactory))

	_, err := r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"invalid"}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{not json`))
	assert.Error(t, err)

	_, ok := r.GetConfig(SubjectClassApps, "app", "TestConfig")
	assert.False(t, ok)
}

func TestDuplicateFactory(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterConfigFactory(testFactory))
	assert.Error(t, r.RegisterConfigFactory(testFactory))
	assert.Error(t, r.RegisterConfigFactory(&Factory{ConfigKey: "NoCreate"}))
	assert.Error(t, r.RegisterConfigFactory(&Factory{ConfigKey: "NoClass", Create: testFactory.Create}))
}

func TestRemoveListenerAndConfig(t *testing.T) {
	r := NewRegistry(nil)
	rec := &recorder{}
	r.AddListener(rec)
	require.NoError(t, r.RegisterConfigFactory(testFactory))

	_, err := r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"one"}`))
	require.NoError(t, err)
	r.RemoveConfig(SubjectClassApps, "app", "TestConfig")
	assert.Equal(t, []EventType{ConfigRegistered, ConfigAdded, ConfigRemoved}, rec.types())

	r.RemoveListener(rec)
	_, err = r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"two"}`))
	require.NoError(t, err)
	assert.Len(t, rec.types(), 3)
}

func TestFactoriesScopedBySubjectClass(t *testing.T) {
	r := NewRegistry(nil)
	rec := &recorder{}
	r.AddListener(rec)

	devices := &Factory{
		SubjectClassKey: "devices",
		ConfigKey:       "TestConfig",
		Create:          func() Config { return &testConfig{} },
	}
	require.NoError(t, r.RegisterConfigFactory(testFactory))
	require.NoError(t, r.RegisterConfigFactory(devices))
	assert.Error(t, r.RegisterConfigFactory(&Factory{
		SubjectClassKey: "devices",
		ConfigKey:       "TestConfig",
		Create:          func() Config { return &testConfig{} },
	}))

	_, err := r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"app-side"}`))
	require.NoError(t, err)
	_, err = r.ApplyConfig("devices", "app", "TestConfig", []byte(`{"name":"device-side"}`))
	require.NoError(t, err)

	appCfg, ok := r.GetConfig(SubjectClassApps, "app", "TestConfig")
	require.True(t, ok)
	assert.Equal(t, "app-side", appCfg.(*testConfig).Name)
	devCfg, ok := r.GetConfig("devices", "app", "TestConfig")
	require.True(t, ok)
	assert.Equal(t, "device-side", devCfg.(*testConfig).Name)

	assert.Equal(t, []ConfigRef{
		{SubjectClass: SubjectClassApps, Subject: "app", ConfigKey: "TestConfig"},
		{SubjectClass: "devices", Subject: "app", ConfigKey: "TestConfig"},
	}, r.Subjects())

	r.UnregisterConfigFactory(devices)
	_, ok = r.GetConfig("devices", "app", "TestConfig")
	assert.False(t, ok)
	_, ok = r.GetConfig(SubjectClassApps, "app", "TestConfig")
	assert.True(t, ok, "unregistering one class must leave the other alone")

	r.RemoveConfig(SubjectClassApps, "app", "TestConfig")
	require.NotEmpty(t, rec.events)
	last := rec.events[len(rec.events)-1]
	assert.Equal(t, ConfigRemoved, last.Type)
	assert.Equal(t, SubjectClassApps, last.SubjectClass)
}

func TestUnknownSubjectClassHeldPending(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.RegisterConfigFactory(testFactory))

	cfg, err := r.ApplyConfig("devices", "app", "TestConfig", []byte(`{"name":"elsewhere"}`))
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Empty(t, r.Subjects())
}

type panicListener struct{}

func (panicListener) Event(Event) { panic("listener failure") }

func TestPanickingListenerDoesNotStopDelivery(t *testing.T) {
	r := NewRegistry(nil)
	rec := &recorder{}
	r.AddListener(panicListener{})
	r.AddListener(rec)

	require.NoError(t, r.RegisterConfigFactory(testFactory))
	_, err := r.ApplyConfig(SubjectClassApps, "app", "TestConfig", []byte(`{"name":"one"}`))
	require.NoError(t, err)

	assert.Equal(t, []EventType{ConfigRegistered, ConfigAdded}, rec.types())
}

func TestFileSourceLoadAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netcfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
apps:
  app:
    TestConfig:
      name: from-file
`), 0o644))

	r := NewRegistry(nil)
	require.NoError(t, r.RegisterConfigFactory(testFactory))

	src := NewFileSource(path, r)
	require.NoError(t, src.Load())

	cfg, ok := r.GetConfig(SubjectClassApps, "app", "TestConfig")
	require.True(t, ok)
	assert.Equal(t, "from-file", cfg.(*testConfig).Name)
	assert.Equal(t, []ConfigRef{{SubjectClass: SubjectClassApps, Subject: "app", ConfigKey: "TestConfig"}}, r.Subjects())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`
apps:
  app:
    TestConfig:
      name: reloaded
`), 0o644))

	require.Eventually(t, func() bool {
		cfg, ok := r.GetConfig(SubjectClassApps, "app", "TestConfig")
		return ok && cfg.(*testConfig).Name == "reloaded"
	}, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("apps: {}\n"), 0o644))
	require.Eventually(t, func() bool {
		_, ok := r.GetConfig(SubjectClassApps, "app", "TestConfig")
		return !ok
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml"), NewRegistry(nil))
	assert.Error(t, src.Load())
}
