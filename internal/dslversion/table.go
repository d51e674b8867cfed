// Package dslversion holds the DSL compatibility contract: which properties
// and structural features each DSL version understands.
package dslversion

// Latest is the newest DSL version understood by the model.
const Latest uint = 7

// properties lists every optional property introduced after version 1.
// Properties absent from the map are available since version 1.
var properties = map[string]uint{
	"availableLengthLimit":     2,
	"displayExtModeCtrl":       2,
	"nonUniqueSpecialsAllowed": 2,
	"displaySpecials":          2,
	"defaultValidValue":        2,

	"reuseAliases":             3,
	"failOnInvalid":            3,
	"displayIdxReadOnlyHidden": 3,

	"validateMinLength": 4,
	"termSuffix":        4,

	"missingOnReadFail": 5,
	"missingOnInvalid":  5,
	"checksumFrom":      5,
	"checksumUntil":     5,

	"reuseCode":       6,
	"copyCodeFrom":    6,
	"valueOverride":   6,
	"readOverride":    6,
	"writeOverride":   6,
	"refreshOverride": 6,
	"lengthOverride":  6,
	"validOverride":   6,
	"nameOverride":    6,
	"forceGen":        6,

	"construct":            7,
	"readCond":             7,
	"validCond":            7,
	"copyConstructFrom":    7,
	"copyReadCondFrom":     7,
	"copyValidCondFrom":    7,
	"constructAsReadCond":  7,
	"constructAsValidCond": 7,
	"semanticLayerType":    7,
}

// deprecations lists properties still accepted but superseded since the
// given version.
var deprecations = map[string]uint{
	"idReplacement": 7,
}

// PropertyMinVersion returns the first DSL version supporting the property.
func PropertyMinVersion(name string) uint {
	if v, ok := properties[name]; ok {
		return v
	}
	return 1
}

// IsPropertySupported reports whether the property is understood by dsl.
// Version 0 stands for the latest version.
func IsPropertySupported(name string, dsl uint) bool {
	return isSupported(PropertyMinVersion(name), dsl)
}

// IsPropertyDeprecated reports whether the property is deprecated for dsl.
func IsPropertyDeprecated(name string, dsl uint) bool {
	v, ok := deprecations[name]
	if !ok {
		return false
	}
	return effective(dsl) >= v
}

// Feature is a structural DSL capability gated by version.
type Feature uint8

const (
	// SemanticTypeLength allows semanticType="length".
	SemanticTypeLength Feature = iota
	// RefSemanticTypeInheritance lets a ref field inherit its target's semantic type.
	RefSemanticTypeInheritance
	// FieldAlias allows <alias> elements.
	FieldAlias
	// CopyFieldsFromBundle allows copyFieldsFrom to name a bundle field.
	CopyFieldsFromBundle
	// InterfaceFieldRef allows %name references in conditions.
	InterfaceFieldRef
	// MemberReplace allows <replace> of copied members.
	MemberReplace
	// ValidValueInStringData allows validValue on string and data fields.
	ValidValueInStringData
	// MultiSchema allows several schemas and @Schema references.
	MultiSchema
	// MessageReuse allows reuse on messages.
	MessageReuse
	// InterfaceReuse allows reuse on interfaces.
	InterfaceReuse
	// ConstructCond allows construct conditions.
	ConstructCond
	// ReadCond allows readCond conditions.
	ReadCond
	// ValidCond allows validCond conditions.
	ValidCond
	// SizeCompInCond allows $#name size comparisons in conditions.
	SizeCompInCond
	// ExistsCheckInCond allows ?$name existence checks in conditions.
	ExistsCheckInCond
	// SemanticLayerType allows semanticLayerType on custom layers.
	SemanticLayerType

	featureCount
)

var features = [featureCount]struct {
	name string
	min  uint
}{
	SemanticTypeLength:         {"semantic type length", 2},
	RefSemanticTypeInheritance: {"ref semantic type inheritance", 2},
	FieldAlias:                 {"field alias", 3},
	CopyFieldsFromBundle:       {"copy fields from bundle", 3},
	InterfaceFieldRef:          {"interface field reference", 4},
	MemberReplace:              {"member replace", 5},
	ValidValueInStringData:     {"valid value in string and data", 6},
	MultiSchema:                {"multiple schemas", 7},
	MessageReuse:               {"message reuse", 7},
	InterfaceReuse:             {"interface reuse", 7},
	ConstructCond:              {"construct condition", 7},
	ReadCond:                   {"read condition", 7},
	ValidCond:                  {"valid condition", 7},
	SizeCompInCond:             {"size comparison in condition", 7},
	ExistsCheckInCond:          {"exists check in condition", 7},
	SemanticLayerType:          {"semantic layer type", 7},
}

// String returns a readable feature name.
func (f Feature) String() string {
	if f >= featureCount {
		return "unknown feature"
	}
	return features[f].name
}

// MinVersion returns the first DSL version supporting the feature.
func (f Feature) MinVersion() uint {
	if f >= featureCount {
		return Latest + 1
	}
	return features[f].min
}

// Supported reports whether dsl supports the feature.
func Supported(f Feature, dsl uint) bool {
	return isSupported(f.MinVersion(), dsl)
}

func isSupported(minVersion, dsl uint) bool {
	return effective(dsl) >= minVersion
}

func effective(dsl uint) uint {
	if dsl == 0 {
		return Latest
	}
	return dsl
}
