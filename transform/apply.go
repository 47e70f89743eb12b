package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/kesh-io/promptbridge/bridgeerr"
	"github.com/kesh-io/promptbridge/value"
)

// stringToBoolTrue and stringToBoolFalse are the fixed string-to-boolean
// table from spec.md §4.4.
var stringToBoolTrue = map[string]bool{"true": true, "yes": true, "1": true, "on": true}
var stringToBoolFalse = map[string]bool{"false": true, "no": true, "0": true, "off": true}

func (tc TypeConversion) apply(_ *applyContext, in value.Value) (value.Value, error) {
	if tc.From == tc.To {
		return in, nil
	}

	switch tc.To {
	case TypeString:
		switch in.Kind() {
		case value.KindString:
			return in, nil
		case value.KindNumber:
			n, _ := in.AsNumber()
			return value.String(strconv.FormatFloat(n, 'g', -1, 64)), nil
		case value.KindBool:
			b, _ := in.AsBool()
			return value.String(strconv.FormatBool(b)), nil
		default:
			return value.Value{}, typeConversionErr("cannot convert %s to string", in.Kind())
		}
	case TypeNumber:
		switch in.Kind() {
		case value.KindNumber:
			return in, nil
		case value.KindString:
			s, _ := in.AsString()

			n, err := cast.ToFloat64E(s)
			if err != nil {
				return value.Value{}, typeConversionErr("cannot convert %q to number", s)
			}

			return value.Number(n), nil
		case value.KindBool:
			b, _ := in.AsBool()
			if b {
				return value.Number(1), nil
			}

			return value.Number(0), nil
		default:
			return value.Value{}, typeConversionErr("cannot convert %s to number", in.Kind())
		}
	case TypeBoolean:
		switch in.Kind() {
		case value.KindBool:
			return in, nil
		case value.KindString:
			raw, _ := in.AsString()
			s := strings.ToLower(raw)

			if stringToBoolTrue[s] {
				return value.Bool(true), nil
			}

			if stringToBoolFalse[s] {
				return value.Bool(false), nil
			}

			return value.Value{}, typeConversionErr("cannot convert %q to boolean", s)
		case value.KindNumber:
			n, _ := in.AsNumber()
			return value.Bool(n != 0), nil
		default:
			return value.Value{}, typeConversionErr("cannot convert %s to boolean", in.Kind())
		}
	default:
		return value.Value{}, typeConversionErr("unsupported target type %q", tc.To)
	}
}

func (em EnumMapping) apply(_ *applyContext, in value.Value) (value.Value, error) {
	key, ok := in.AsString()
	if !ok {
		return value.Value{}, enumMappingErr("EnumMapping requires a string input, got %s", in.Kind())
	}

	if mapped, ok := em.Mappings[key]; ok {
		return value.String(mapped), nil
	}

	if em.Default != nil {
		return value.String(*em.Default), nil
	}

	return value.Value{}, enumMappingErr("no mapping for %q and no default configured", key)
}

var linearFormulas = map[UnitFormula]struct{ scale, offset float64 }{
	FormulaCToF: {9.0 / 5.0, 32},
	FormulaFToC: {5.0 / 9.0, -32 * 5.0 / 9.0},
	FormulaCToK: {1, 273.15},
	FormulaKToC: {1, -273.15},
}

func (uc UnitConversion) apply(_ *applyContext, in value.Value) (value.Value, error) {
	n, ok := in.AsNumber()
	if !ok {
		return value.Value{}, unitConversionErr("UnitConversion requires a numeric input, got %s", in.Kind())
	}

	if uc.Formula == FormulaLinear {
		return value.Number(n*uc.Scale + uc.Offset), nil
	}

	f, ok := linearFormulas[uc.Formula]
	if !ok {
		return value.Value{}, unitConversionErr("unknown unit conversion formula %q", uc.Formula)
	}

	// f_to_c needs (n-32)*5/9, expressed as n*scale+offset with
	// scale=5/9, offset=-32*5/9 — matches the table above.
	if uc.Formula == FormulaFToC {
		return value.Number((n - 32) * f.scale), nil
	}

	return value.Number(n*f.scale + f.offset), nil
}

func (fr FieldRename) apply(_ *applyContext, in value.Value) (value.Value, error) {
	// FieldRename's "new name" is expressed at the Rule level via TargetPath;
	// apply is identity because the rename is a copy-to-target operation
	// handled by the pipeline's write-back, not a value transformation.
	return in, nil
}

func (dv DefaultValue) apply(_ *applyContext, in value.Value) (value.Value, error) {
	if in.IsNull() {
		return dv.Value, nil
	}

	return in, nil
}

func (c Conditional) apply(ctx *applyContext, in value.Value) (value.Value, error) {
	ok, err := c.Condition.evaluate(ctx.doc, ctx.cache)
	if err != nil {
		return value.Value{}, err
	}

	if ok {
		return c.IfTrue.apply(ctx, in)
	}

	if c.IfFalse != nil {
		return c.IfFalse.apply(ctx, in)
	}

	return in, nil
}

func (c Custom) apply(_ *applyContext, in value.Value) (value.Value, error) {
	out, err := c.Fn(in)
	if err != nil {
		return value.Value{}, customErr("custom function %q failed: %v", c.Name, err)
	}

	return out, nil
}

func transformationErr(sub bridgeerr.TransformationSubKind, format string, args ...any) error {
	err := bridgeerr.New(bridgeerr.KindTransformationError, fmt.Sprintf(format, args...))
	err.SubKind = string(sub)

	return err
}

func typeConversionErr(format string, args ...any) error {
	return transformationErr(bridgeerr.TransformationTypeConversion, format, args...)
}

func enumMappingErr(format string, args ...any) error {
	return transformationErr(bridgeerr.TransformationEnumMapping, format, args...)
}

func unitConversionErr(format string, args ...any) error {
	return transformationErr(bridgeerr.TransformationUnitConversion, format, args...)
}

func customErr(format string, args ...any) error {
	return transformationErr(bridgeerr.TransformationCustom, format, args...)
}
