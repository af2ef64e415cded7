package wgapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hamed0406/wgwatch/internal/domain"
)

// ErrMalformedResponse means the body was not a configuration info document.
var ErrMalformedResponse = errors.New("wgapi: malformed response")

// The dashboard has shipped two layouts:
//
//	{"data": {"status": "up", "peers": [...]}}
//	{"data": {"configurationInfo": {"Status": true}, "configurationPeers": [...]}}
//
// Both are accepted; fields that are absent take their zero value.
type envelope struct {
	Data *payload `json:"data"`
}

type payload struct {
	Status             any       `json:"status"`
	ConfigurationInfo  *info     `json:"configurationInfo"`
	Peers              []rawPeer `json:"peers"`
	ConfigurationPeers []rawPeer `json:"configurationPeers"`
}

type info struct {
	Status any `json:"Status"`
}

// Scalars are decoded loosely; the dashboard has sent numeric ids.
type rawPeer struct {
	Name            any `json:"name"`
	ID              any `json:"id"`
	LatestHandshake any `json:"latest_handshake"`
	Status          any `json:"status"`
}

func decodeDocument(body []byte) (*domain.Document, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: no data field", ErrMalformedResponse)
	}

	p := env.Data
	status := p.Status
	if p.ConfigurationInfo != nil && p.ConfigurationInfo.Status != nil {
		status = p.ConfigurationInfo.Status
	}

	peers := p.Peers
	if len(peers) == 0 {
		peers = p.ConfigurationPeers
	}

	doc := &domain.Document{InterfaceUp: isUp(status)}
	for _, rp := range peers {
		name := strings.TrimSpace(scalar(rp.Name))
		if name == "" {
			name = strings.TrimSpace(scalar(rp.ID))
		}
		if name == "" {
			name = "unknown"
		}
		doc.Peers = append(doc.Peers, domain.PeerRecord{
			Name:      name,
			Handshake: scalar(rp.LatestHandshake),
			Status:    scalar(rp.Status),
		})
	}
	return doc, nil
}

// isUp treats a missing status as down.
func isUp(v any) bool {
	switch s := v.(type) {
	case bool:
		return s
	case string:
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "up", "running", "true", "active":
			return true
		}
	}
	return false
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
