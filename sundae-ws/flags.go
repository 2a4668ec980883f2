package sundaews

import (
	"fmt"
	"time"

	sundaecli "github.com/SundaeSwap-finance/sundae-realtime/sundae-cli"
	sundaesecret "github.com/SundaeSwap-finance/sundae-realtime/sundae-secret"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

var RealtimeOpts struct {
	TopicKey     string
	Carrier      string
	IsQueryParam bool
	TTLSeconds   int
	Endpoint     string
	Concurrency  int
	ConfigSecret string
}

var TopicKeyFlag = sundaecli.StringFlag("real-time-item-key", "the resource attribute subscribers filter on", &RealtimeOpts.TopicKey)
var CarrierFlag = &cli.StringFlag{
	Name:        "carrier",
	Usage:       "where connect requests carry the item id: header or queryParam",
	EnvVars:     []string{"CARRIER_MODE"},
	Destination: &RealtimeOpts.Carrier,
}
var IsQueryParamFlag = sundaecli.BoolFlag("is-query-param", "legacy switch, equivalent to --carrier queryParam", &RealtimeOpts.IsQueryParam)
var TTLSecondsFlag = sundaecli.IntFlag("ttl-seconds", "lifetime of a subscription record", &RealtimeOpts.TTLSeconds, int(DefaultTTL/time.Second))
var EndpointFlag = sundaecli.StringFlag("ws-endpoint", "API Gateway management endpoint used to post to connections", &RealtimeOpts.Endpoint)
var ConcurrencyFlag = sundaecli.IntFlag("concurrency", "max concurrent posts per broadcast", &RealtimeOpts.Concurrency, DefaultConcurrency)
var ConfigSecretFlag = sundaecli.StringFlag("config-secret", "optional secrets manager secret holding config overrides", &RealtimeOpts.ConfigSecret)

var RealtimeFlags = []cli.Flag{
	TopicKeyFlag,
	CarrierFlag,
	IsQueryParamFlag,
	TTLSecondsFlag,
	EndpointFlag,
	ConcurrencyFlag,
	ConfigSecretFlag,
}

// ConfigFromFlags builds a Config from parsed flags.
func ConfigFromFlags() Config {
	config := Config{
		TopicKey:    RealtimeOpts.TopicKey,
		CarrierMode: CarrierMode(RealtimeOpts.Carrier),
		TTLSeconds:  RealtimeOpts.TTLSeconds,
		Endpoint:    RealtimeOpts.Endpoint,
	}
	if config.CarrierMode == "" && RealtimeOpts.IsQueryParam {
		config.CarrierMode = CarrierQueryParam
	}
	config.Normalize()
	return config
}

// LoadConfig builds the config from flags, applies overrides from
// --config-secret when set, and validates it for role.
func LoadConfig(s *session.Session, role Role) (Config, error) {
	config := ConfigFromFlags()
	if RealtimeOpts.ConfigSecret != "" {
		if err := sundaesecret.LoadSecret(s, RealtimeOpts.ConfigSecret, &config); err != nil {
			return Config{}, err
		}
		config.Normalize()
	}
	if err := config.Validate(role); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
