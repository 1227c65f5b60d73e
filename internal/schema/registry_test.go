package schema

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustModel(t *testing.T, modules ...Module) *Model {
	t.Helper()
	model, err := NewModel(modules)
	require.NoError(t, err)
	return model
}

func TestRegistry_SetGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	assert.Nil(t, registry.Get())
	assert.Equal(t, Generation(0), registry.Generation())

	model := mustModel(t, Module{Name: "a", Namespace: "urn:a"})
	registry.Set(model)
	assert.Same(t, model, registry.Get())
}

func TestRegistry_ConcurrentReadersSeeWholeModels(t *testing.T) {
	t.Parallel()

	// Each model carries a name/namespace pair that must always match. A torn
	// read would surface as a mismatched pair or a module count other than two.
	models := make([]*Model, 8)
	for i := range models {
		models[i] = mustModel(t,
			Module{Name: fmt.Sprintf("m%d-a", i), Namespace: fmt.Sprintf("urn:%d", i)},
			Module{Name: fmt.Sprintf("m%d-b", i), Namespace: fmt.Sprintf("urn:%d", i)},
		)
	}

	registry := NewRegistry()
	registry.Set(models[0])

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 16)

	for r := 0; r < 16; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				mods := registry.Get().Modules()
				if len(mods) != 2 || mods[0].Namespace != mods[1].Namespace {
					errs <- fmt.Errorf("observed torn model: %+v", mods)
					return
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		registry.Set(models[i%len(models)])
	}
	close(stop)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestRegistry_NextGenerationIsUniqueUnderContention(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	const workers, perWorker = 8, 250

	var mu sync.Mutex
	seen := make(map[Generation]struct{}, workers*perWorker)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]Generation, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, registry.NextGeneration())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, g := range local {
				seen[g] = struct{}{}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, Generation(workers*perWorker), registry.Generation())
}

func TestRegistry_GenerationsStrictlyIncrease(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		registry := NewRegistry()
		n := rapid.IntRange(1, 200).Draw(rt, "updates")

		prev := registry.Generation()
		for i := 0; i < n; i++ {
			g := registry.NextGeneration()
			if g <= prev {
				rt.Fatalf("generation %d not greater than previous %d", g, prev)
			}
			prev = g
		}
		if registry.Generation() != Generation(n) {
			rt.Fatalf("expected generation %d after %d updates, got %d", n, n, registry.Generation())
		}
	})
}

func TestRegistry_Update(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	first := mustModel(t, Module{Name: "a", Namespace: "urn:a"})
	second := mustModel(t, Module{Name: "b", Namespace: "urn:b"})

	assert.Equal(t, Generation(1), registry.Update(first))
	model, gen := registry.Snapshot()
	assert.Same(t, first, model)
	assert.Equal(t, Generation(1), gen)

	// Set keeps the generation, NextGeneration keeps the model
	registry.Set(second)
	model, gen = registry.Snapshot()
	assert.Same(t, second, model)
	assert.Equal(t, Generation(1), gen)

	assert.Equal(t, Generation(2), registry.NextGeneration())
	assert.Same(t, second, registry.Get())
}

func TestRegistry_SnapshotPairsModelWithItsGeneration(t *testing.T) {
	t.Parallel()

	const updates = 500
	models := make([]*Model, updates)
	for i := range models {
		// the model published as generation g is named g<g>
		models[i] = mustModel(t, Module{Name: fmt.Sprintf("g%d", i+1), Namespace: "urn:g"})
	}

	registry := NewRegistry()
	done := make(chan struct{})
	var wg sync.WaitGroup
	mismatches := make(chan string, 4)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				model, gen := registry.Snapshot()
				if model == nil {
					if gen != 0 {
						mismatches <- fmt.Sprintf("generation %d without a model", gen)
						return
					}
					continue
				}
				if name := model.Modules()[0].Name; name != fmt.Sprintf("g%d", gen) {
					mismatches <- fmt.Sprintf("model %s paired with generation %d", name, gen)
					return
				}
			}
		}()
	}

	for _, model := range models {
		registry.Update(model)
	}
	close(done)
	wg.Wait()
	close(mismatches)

	for m := range mismatches {
		t.Error(m)
	}
	assert.Equal(t, Generation(updates), registry.Generation())
}
