package scrollstage

import (
	"fmt"
	"image/color"
	"strings"
)

// UseCase selects one of the landing page's presentation variants.
type UseCase uint8

const (
	UseCaseIndustrial UseCase = iota
	UseCaseFashion
	UseCaseArt

	useCaseCount
)

// Presentation is the display content of one use case.
type Presentation struct {
	Key         string
	Code        string
	Title       string
	Description string
	Icon        string
	// ParticleColor tints the background particle field.
	ParticleColor color.NRGBA
}

var presentations = [useCaseCount]Presentation{
	UseCaseIndustrial: {
		Key:           "industrial",
		Code:          "DPA",
		Title:         "Activo Digital (DA)",
		Description:   "Maquinaria pesada y equipamiento industrial con trazabilidad completa en cadena de bloques.",
		Icon:          "factory",
		ParticleColor: color.NRGBA{R: 0, G: 255, B: 136, A: 38},
	},
	UseCaseFashion: {
		Key:           "fashion",
		Code:          "DLA",
		Title:         "Moda de Lujo",
		Description:   "Autenticidad verificable para piezas de alta costura y accesorios exclusivos.",
		Icon:          "gem",
		ParticleColor: color.NRGBA{R: 157, G: 0, B: 255, A: 38},
	},
	UseCaseArt: {
		Key:           "art",
		Code:          "LUX",
		Title:         "Arte y NFT",
		Description:   "Obras físicas vinculadas a certificados digitales de procedencia.",
		Icon:          "palette",
		ParticleColor: color.NRGBA{R: 0, G: 194, B: 255, A: 38},
	},
}

// Valid reports whether u names a known use case.
func (u UseCase) Valid() bool {
	return u < useCaseCount
}

// Presentation returns the display content for u. Invalid values return the
// industrial presentation.
func (u UseCase) Presentation() Presentation {
	if !u.Valid() {
		return presentations[UseCaseIndustrial]
	}
	return presentations[u]
}

// String returns the use case key.
func (u UseCase) String() string {
	if !u.Valid() {
		return "unknown"
	}
	return presentations[u].Key
}

// Next returns the following use case, wrapping around.
func (u UseCase) Next() UseCase {
	return (u + 1) % useCaseCount
}

// Prev returns the preceding use case, wrapping around.
func (u UseCase) Prev() UseCase {
	return (u + useCaseCount - 1) % useCaseCount
}

// UseCases returns every use case in display order.
func UseCases() []UseCase {
	out := make([]UseCase, useCaseCount)
	for i := range out {
		out[i] = UseCase(i)
	}
	return out
}

// ParseUseCase resolves a key ("fashion") or code ("DLA"), case-insensitively.
func ParseUseCase(s string) (UseCase, error) {
	for i, p := range presentations {
		if strings.EqualFold(s, p.Key) || strings.EqualFold(s, p.Code) {
			return UseCase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown use case %q", s)
}
