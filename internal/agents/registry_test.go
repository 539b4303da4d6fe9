package agents

import "testing"

func TestNewRegistryContainsEveryKey(t *testing.T) {
	reg := NewRegistry(Integrations{}, nil)
	keys := Keys()
	if len(reg) != len(keys) {
		t.Fatalf("registry has %d agents, Keys() lists %d", len(reg), len(keys))
	}
	for _, k := range keys {
		agent, ok := reg[k]
		if !ok {
			t.Errorf("registry missing agent for key %q", k)
			continue
		}
		if agent.Name() == "" {
			t.Errorf("agent %q has empty Name()", k)
		}
		if agent.Description() == "" {
			t.Errorf("agent %q has empty Description()", k)
		}
	}
}

func TestNewRegistryArchiveUsesProvidedStore(t *testing.T) {
	reg := NewRegistry(Integrations{}, nil)
	archive, ok := reg["archive"]
	if !ok {
		t.Fatal("expected archive key in registry")
	}
	if _, err := archive.DemoProcess("find election coverage"); err != nil {
		t.Errorf("archive agent with nil store should still produce mock results, got error: %v", err)
	}
}
