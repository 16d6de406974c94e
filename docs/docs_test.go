package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

type response struct {
	Schema map[string]any `json:"schema"`
}

type swaggerDoc struct {
	Paths map[string]map[string]struct {
		Responses map[string]response `json:"responses"`
	} `json:"paths"`
}

func TestHealthResponsesUseHealthSchema(t *testing.T) {
	raw, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var doc swaggerDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("doc is not valid json: %v", err)
	}
	get := doc.Paths["/health"]["get"]
	for _, code := range []string{"200", "503"} {
		if ref := get.Responses[code].Schema["$ref"]; ref != "#/definitions/httpapi.healthResponse" {
			t.Fatalf("%s response schema %v", code, ref)
		}
	}
}
