package scrollstage

import (
	"strings"

	"github.com/tanema/gween/ease"
)

// easeFamilies maps a named curve family to its in/out/inOut variants.
// powerN follows the usual convention of power1 = quadratic.
var easeFamilies = map[string][3]ease.TweenFunc{
	"power1":  {ease.InQuad, ease.OutQuad, ease.InOutQuad},
	"quad":    {ease.InQuad, ease.OutQuad, ease.InOutQuad},
	"power2":  {ease.InCubic, ease.OutCubic, ease.InOutCubic},
	"cubic":   {ease.InCubic, ease.OutCubic, ease.InOutCubic},
	"power3":  {ease.InQuart, ease.OutQuart, ease.InOutQuart},
	"quart":   {ease.InQuart, ease.OutQuart, ease.InOutQuart},
	"power4":  {ease.InQuint, ease.OutQuint, ease.InOutQuint},
	"quint":   {ease.InQuint, ease.OutQuint, ease.InOutQuint},
	"sine":    {ease.InSine, ease.OutSine, ease.InOutSine},
	"expo":    {ease.InExpo, ease.OutExpo, ease.InOutExpo},
	"circ":    {ease.InCirc, ease.OutCirc, ease.InOutCirc},
	"back":    {ease.InBack, ease.OutBack, ease.InOutBack},
	"elastic": {ease.InElastic, ease.OutElastic, ease.InOutElastic},
	"bounce":  {ease.InBounce, ease.OutBounce, ease.InOutBounce},
}

// EaseByName resolves a curve name such as "power3.out", "sine.inOut" or
// "none". A family without a suffix ("power2") means its out variant. Any
// parenthesised parameter ("back.out(1.5)") is ignored.
func EaseByName(name string) (ease.TweenFunc, bool) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	switch name {
	case "", "none", "linear":
		return ease.Linear, true
	}

	family, variant, _ := strings.Cut(name, ".")
	fns, ok := easeFamilies[strings.ToLower(family)]
	if !ok {
		return nil, false
	}
	switch variant {
	case "in":
		return fns[0], true
	case "", "out":
		return fns[1], true
	case "inOut":
		return fns[2], true
	default:
		return nil, false
	}
}

// applyEase evaluates fn at normalized time u in [0,1] and returns the eased
// fraction. A nil fn is linear.
func applyEase(fn ease.TweenFunc, u float64) float64 {
	if fn == nil {
		return u
	}
	return float64(fn(float32(u), 0, 1, 1))
}
