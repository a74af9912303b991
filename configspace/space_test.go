package configspace

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plateauSpace(t *testing.T) *ConfigurationSpace {
	t.Helper()
	cs := New()
	require.NoError(t, cs.Add(
		Must(NewCategorical("mode", []string{"min", "max"})),
		Must(NewUniformInteger("patience", 5, 20, 10)),
		Must(NewUniformFloat("factor", 0.01, 0.9, 0.1)),
	))
	return cs
}

func TestHyperparameterConstruction(t *testing.T) {
	t.Run("categorical rejects bad input", func(t *testing.T) {
		_, err := NewCategorical("mode", nil)
		assert.Error(t, err)
		_, err = NewCategorical("mode", []string{"a", "a"})
		assert.Error(t, err)
		_, err = NewCategorical("mode", []string{"a", "b"}, "c")
		assert.Error(t, err)
		_, err = NewCategorical("", []string{"a"})
		assert.Error(t, err)
	})

	t.Run("categorical default", func(t *testing.T) {
		c := Must(NewCategorical("mode", []string{"min", "max"}))
		assert.Equal(t, "min", c.Default())
		c = Must(NewCategorical("mode", []string{"min", "max"}, "max"))
		assert.Equal(t, "max", c.Default())
	})

	t.Run("numeric bounds", func(t *testing.T) {
		_, err := NewUniformInteger("patience", 20, 5, 10)
		assert.Error(t, err)
		_, err = NewUniformInteger("patience", 5, 20, 30)
		assert.Error(t, err)
		_, err = NewUniformFloat("factor", 0.9, 0.01, 0.1)
		assert.Error(t, err)
		_, err = NewLogUniformFloat("lr", 0, 1, 0.1)
		assert.Error(t, err)
	})

	t.Run("Must panics on error", func(t *testing.T) {
		assert.Panics(t, func() { Must(NewUniformInteger("x", 1, 0, 0)) })
	})
}

func TestContains(t *testing.T) {
	cs := plateauSpace(t)
	mode, _ := cs.Get("mode")
	patience, _ := cs.Get("patience")
	factor, _ := cs.Get("factor")

	tests := []struct {
		hp   Hyperparameter
		v    any
		want bool
	}{
		{mode, "min", true},
		{mode, "max", true},
		{mode, "avg", false},
		{mode, 1, false},
		{patience, 5, true},
		{patience, 20, true},
		{patience, 4, false},
		{patience, 21, false},
		{patience, 10.0, true},
		{patience, 10.5, false},
		{factor, 0.01, true},
		{factor, 0.9, true},
		{factor, 1, false},
		{factor, 0.95, false},
		{factor, "0.5", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.hp.Contains(tt.v), "%s contains %v", tt.hp.Name(), tt.v)
	}
}

func TestSampleStaysInDomain(t *testing.T) {
	cs := plateauSpace(t)
	require.NoError(t, cs.Add(Must(NewLogUniformFloat("lr", 1e-5, 1e-1, 1e-3))))

	rng := rand.New(rand.NewPCG(1, 2))
	for _, cfg := range cs.SampleN(rng, 500) {
		require.NoError(t, cs.Validate(cfg))
	}
}

func TestSampleIsDeterministicForSeed(t *testing.T) {
	cs := plateauSpace(t)
	a := cs.SampleN(rand.New(rand.NewPCG(42, 7)), 10)
	b := cs.SampleN(rand.New(rand.NewPCG(42, 7)), 10)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("samples differ for identical seeds (-a +b):\n%s", diff)
	}
}

func TestDefaultConfiguration(t *testing.T) {
	cs := plateauSpace(t)
	want := Configuration{"mode": "min", "patience": 10, "factor": 0.1}
	if diff := cmp.Diff(want, cs.DefaultConfiguration()); diff != "" {
		t.Errorf("default configuration mismatch (-want +got):\n%s", diff)
	}
}

func TestConditions(t *testing.T) {
	cs := New()
	require.NoError(t, cs.Add(
		Must(NewCategorical("__choice__", []string{"a", "b"})),
		Must(NewUniformInteger("a:x", 1, 3, 2)),
		Must(NewUniformFloat("b:y", 0, 1, 0.5)),
	))
	require.NoError(t, cs.AddCondition(EqualsCondition{Child: "a:x", Parent: "__choice__", Value: "a"}))
	require.NoError(t, cs.AddCondition(EqualsCondition{Child: "b:y", Parent: "__choice__", Value: "b"}))

	t.Run("default only sets active children", func(t *testing.T) {
		want := Configuration{"__choice__": "a", "a:x": 2}
		assert.Equal(t, want, cs.DefaultConfiguration())
	})

	t.Run("samples respect conditions", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(3, 4))
		for _, cfg := range cs.SampleN(rng, 200) {
			require.NoError(t, cs.Validate(cfg))
			_, hasX := cfg["a:x"]
			_, hasY := cfg["b:y"]
			assert.NotEqual(t, hasX, hasY)
		}
	})

	t.Run("validate rejects inactive values", func(t *testing.T) {
		err := cs.Validate(Configuration{"__choice__": "a", "a:x": 2, "b:y": 0.3})
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("bad conditions", func(t *testing.T) {
		assert.Error(t, cs.AddCondition(EqualsCondition{Child: "a:x", Parent: "__choice__", Value: "b"}))
		assert.Error(t, cs.AddCondition(EqualsCondition{Child: "__choice__", Parent: "a:x", Value: 1}))
		assert.Error(t, cs.AddCondition(EqualsCondition{Child: "missing", Parent: "__choice__", Value: "a"}))
	})
}

func TestAddSpace(t *testing.T) {
	parent := New()
	require.NoError(t, parent.Add(Must(NewCategorical("__choice__", []string{"plateau", "none"}))))
	require.NoError(t, parent.AddSpace("plateau", plateauSpace(t), "__choice__", "plateau"))

	assert.Equal(t, []string{"__choice__", "plateau:mode", "plateau:patience", "plateau:factor"}, parent.Names())
	assert.Len(t, parent.Conditions(), 3)

	cfg := parent.DefaultConfiguration()
	assert.Equal(t, Configuration{"mode": "min", "patience": 10, "factor": 0.1}, cfg.Sub("plateau"))

	assert.Error(t, parent.AddSpace("plateau", plateauSpace(t), "", nil), "duplicate names must be rejected")
}

func TestValidate(t *testing.T) {
	cs := plateauSpace(t)

	tests := []struct {
		name    string
		cfg     Configuration
		wantErr bool
	}{
		{"valid", Configuration{"mode": "max", "patience": 7, "factor": 0.5}, false},
		{"yaml style numbers", Configuration{"mode": "min", "patience": 7.0, "factor": 0.5}, false},
		{"integer outside float range", Configuration{"mode": "min", "patience": 7, "factor": 1}, true},
		{"missing", Configuration{"mode": "max", "patience": 7}, true},
		{"unknown key", Configuration{"mode": "max", "patience": 7, "factor": 0.5, "gamma": 0.1}, true},
		{"out of range", Configuration{"mode": "max", "patience": 30, "factor": 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cs.Validate(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigurationGetters(t *testing.T) {
	cfg := Configuration{"mode": "min", "patience": 10, "factor": 0.25, "steps": 3.0}

	mode, err := cfg.String("mode")
	require.NoError(t, err)
	assert.Equal(t, "min", mode)

	patience, err := cfg.Int("patience")
	require.NoError(t, err)
	assert.Equal(t, 10, patience)

	steps, err := cfg.Int("steps")
	require.NoError(t, err)
	assert.Equal(t, 3, steps)

	factor, err := cfg.Float("factor")
	require.NoError(t, err)
	assert.Equal(t, 0.25, factor)

	_, err = cfg.Int("factor")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = cfg.String("patience")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
	_, err = cfg.Float("missing")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestConfigurationIntRejectsOverflow(t *testing.T) {
	cfg := Configuration{
		"big":      uint64(math.MaxUint64),
		"huge":     1e300,
		"negative": -1e300,
		"inf":      math.Inf(1),
		"nan":      math.NaN(),
		"edge":     float64(1 << 63),
	}

	for name := range cfg {
		t.Run(name, func(t *testing.T) {
			_, err := cfg.Int(name)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	n, err := Configuration{"max": uint64(math.MaxInt)}.Int("max")
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, n)

	hp := Must(NewUniformInteger("patience", 5, 20, 10))
	assert.False(t, hp.Contains(1e300))
}

func TestConfigurationYAML(t *testing.T) {
	cs := plateauSpace(t)
	cfg := Configuration{"mode": "max", "patience": 12, "factor": 0.3}

	data, err := cfg.ToYAML()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadConfiguration(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.NoError(t, cs.Validate(loaded))

	_, err = ParseConfiguration([]byte("mode: [min, max]\n"))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalJSON(t *testing.T) {
	cs := plateauSpace(t)

	data, err := json.Marshal(cs)
	require.NoError(t, err)

	var decoded struct {
		Hyperparameters []map[string]any `json:"hyperparameters"`
		Conditions      []map[string]any `json:"conditions"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Hyperparameters, 3)
	assert.Empty(t, decoded.Conditions)

	mode := decoded.Hyperparameters[0]
	assert.Equal(t, "mode", mode["name"])
	assert.Equal(t, "categorical", mode["type"])
	assert.Equal(t, []any{"min", "max"}, mode["choices"])

	patience := decoded.Hyperparameters[1]
	assert.Equal(t, "uniform_int", patience["type"])
	assert.Equal(t, 5.0, patience["lower"])
	assert.Equal(t, 20.0, patience["upper"])
	assert.Equal(t, 10.0, patience["default"])

	factor := decoded.Hyperparameters[2]
	assert.Equal(t, 0.01, factor["lower"])
	assert.Equal(t, 0.9, factor["upper"])
	assert.Equal(t, false, factor["log"])
}
