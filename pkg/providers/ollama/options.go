package ollama

import "github.com/harunnryd/tooloop/pkg/configutil"

// Options are the model parameters forwarded in the request "options" field.
// Nil fields are left to the server's defaults.
type Options struct {
	Temperature   *float64 `mapstructure:"temperature" json:"temperature,omitempty"`
	TopP          *float64 `mapstructure:"top_p" json:"top_p,omitempty"`
	TopK          *int     `mapstructure:"top_k" json:"top_k,omitempty"`
	NumCtx        *int     `mapstructure:"num_ctx" json:"num_ctx,omitempty"`
	NumPredict    *int     `mapstructure:"num_predict" json:"num_predict,omitempty"`
	Seed          *int     `mapstructure:"seed" json:"seed,omitempty"`
	RepeatPenalty *float64 `mapstructure:"repeat_penalty" json:"repeat_penalty,omitempty"`
}

var optionsSchema = configutil.Schema{
	Path: "ollama.options",
	Fields: []configutil.Field{
		{Key: "temperature", Kind: configutil.KindNumber, Min: configutil.Bound(0)},
		{Key: "top_p", Kind: configutil.KindNumber, Min: configutil.Bound(0), Max: configutil.Bound(1)},
		{Key: "top_k", Kind: configutil.KindInteger, Min: configutil.Bound(1)},
		{Key: "num_ctx", Kind: configutil.KindInteger, Min: configutil.Bound(1)},
		// -1 generates until stop, -2 until the context is full.
		{Key: "num_predict", Kind: configutil.KindInteger, Min: configutil.Bound(-2)},
		{Key: "seed", Kind: configutil.KindInteger},
		{Key: "repeat_penalty", Kind: configutil.KindNumber, Min: configutil.Bound(0)},
	},
}

// DecodeOptions validates a loose settings map (as read from config) and
// decodes it. An empty map yields nil options.
func DecodeOptions(settings map[string]any) (*Options, error) {
	if len(settings) == 0 {
		return nil, nil
	}
	if err := configutil.ValidateSettings(settings, optionsSchema); err != nil {
		return nil, err
	}
	var opts Options
	if err := configutil.DecodeSettings(settings, &opts, optionsSchema.Path); err != nil {
		return nil, err
	}
	return &opts, nil
}
