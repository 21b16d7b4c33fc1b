package configutil

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeSettings decodes a settings map already checked by ValidateSettings
// into a struct tagged with `mapstructure`. Numeric strings are converted and
// keys match fields the same way ValidateSettings matches them. A key with
// no field is an error. Decode errors are prefixed with path.
func DecodeSettings(input map[string]any, out any, path string) error {
	if len(input) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
