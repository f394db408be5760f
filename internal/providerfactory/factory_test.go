// internal/providerfactory/factory_test.go
package providerfactory

import (
	"reflect"
	"testing"

	"github.com/mwiater/thematic/internal/appconfig"
)

func TestCollectHostTypes(t *testing.T) {
	t.Parallel()

	hosts := []appconfig.Host{{Type: "llamacpp"}, {Type: ""}, {Type: "llama.cpp"}, {Type: "Ollama"}}
	if got := collectHostTypes(hosts); !reflect.DeepEqual(got, []string{"llama.cpp", "ollama"}) {
		t.Fatalf("collectHostTypes = %v", got)
	}
}

func TestNewChatProvider(t *testing.T) {
	t.Parallel()

	if _, err := NewChatProvider(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewChatProvider(&appconfig.Config{Hosts: []appconfig.Host{{Type: "vllm"}}}); err == nil {
		t.Fatal("expected error for unsupported host type")
	}
	p, err := NewChatProvider(&appconfig.Config{})
	if err != nil || p == nil {
		t.Fatalf("expected default provider, got %v %v", p, err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}
