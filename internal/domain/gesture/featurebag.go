package gesture

// FeatureBag holds the named numeric features extracted from a motion clip,
// plus an optional embedded "gestureType" tag. The loose map shape mirrors
// the JSON produced by the browser-side extractor.
type FeatureBag map[string]any

// gestureTypeKey is the tag the extractor embeds alongside numeric features.
const gestureTypeKey = "gestureType"

// Float returns the named feature as a float64, or 0.0 when absent or
// non-numeric. Booleans coerce to 0/1 to match the extractor's encoding of
// flags like palmFacing.
func (b FeatureBag) Float(name string) float64 {
	v, ok := b[name]
	if !ok {
		return 0.0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case bool:
		if n {
			return 1.0
		}
		return 0.0
	default:
		return 0.0
	}
}

// GestureType returns the embedded gesture type tag, if present.
func (b FeatureBag) GestureType() (Intent, bool) {
	v, ok := b[gestureTypeKey]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return Intent(s), true
}
