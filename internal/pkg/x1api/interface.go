package x1api

import (
	"context"
	"time"
)

/*
 *   Wire types of the gateway's uiconfig document
 */

type DataPoint struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
}

type Function struct {
	ChannelType  string      `json:"channelType"`
	DataPoints   []DataPoint `json:"dataPoints"`
	DisplayName  string      `json:"displayName"`
	FunctionType string      `json:"functionType"`
	UID          string      `json:"uid"`
}

// LocationNode is one node of the nested location tree.  The gateway does not
// send ID or ParentID, they are filled in when the tree is flattened.
type LocationNode struct {
	ID           *uint16        `json:"id,omitempty"`
	ParentID     *uint16        `json:"parentLocation,omitempty"`
	DisplayName  string         `json:"displayName"`
	Functions    []string       `json:"functions,omitempty"`
	LocationType string         `json:"locationType"`
	Locations    []LocationNode `json:"locations,omitempty"`
}

type Trade struct {
	DisplayName string   `json:"displayName"`
	Functions   []string `json:"functions,omitempty"`
	TradeType   string   `json:"tradeType"`
}

type UIConfig struct {
	UID       string         `json:"uid,omitempty"`
	Functions []Function     `json:"functions"`
	Locations []LocationNode `json:"locations"`
	Trades    []Trade        `json:"trades"`
}

// Value is one data point value, as read from or written to the gateway
type Value struct {
	UID   string `json:"uid" mapstructure:"uid"`
	Value string `json:"value" mapstructure:"value"`
}

type Gateway interface {
	WithTimeout(d time.Duration) Gateway
	RegisterClient(ctx context.Context) (string, error)
	UIConfig(ctx context.Context, token string) (*UIConfig, error)
	Values(ctx context.Context, token string, uid string) ([]Value, error)
	SetValue(ctx context.Context, token string, uid string, value uint16) error
}
