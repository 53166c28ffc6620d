package mathtypes

import (
	"github.com/Neumenon/clyde/clyde"
	"github.com/Neumenon/clyde/shadow"
)

// Config classes with field defaults.
const (
	ManagedConfig   = "com.threerings.config.ManagedConfig"
	ParticleLayer   = "com.threerings.opengl.effect.config.BaseParticleSystemConfig$Layer"
	TudeySceneModel = "com.threerings.tudey.data.TudeySceneModel"
)

// Transform classifications stored in a transform's _type field.
const (
	TypeIdentity int32 = iota
	TypeRigid
	TypeUniform
	TypeAffine
	TypeGeneral
)

// RegisterFields adds the field hooks for transforms and config defaults.
func RegisterFields(h *clyde.FieldHooks) {
	h.Register(Transform2D, readTransform2D)
	h.Register(Transform3D, readTransform3D)
	h.Register(ManagedConfig, defaults(
		fieldDefault{"comment", shadow.Str("")},
	))
	h.Register(ParticleLayer, readParticleLayer)
	h.Register(TudeySceneModel, defaults(
		fieldDefault{"sceneId", shadow.Int(0)},
		fieldDefault{"name", shadow.Str("")},
		fieldDefault{"version", shadow.Int(1)},
	))
}

type fieldDefault struct {
	name  string
	value shadow.Value
}

// defaults fills in fields the stream left out.
func defaults(defs ...fieldDefault) clyde.FieldHook {
	return func(_ int, _ *shadow.Instance, d *clyde.Decoder) error {
		for _, def := range defs {
			if _, ok := d.Field(def.name); ok {
				continue
			}
			if err := d.SetField(def.name, def.value); err != nil {
				return err
			}
		}
		return nil
	}
}

func readParticleLayer(_ int, inst *shadow.Instance, d *clyde.Decoder) error {
	if _, ok := d.Field("rotateOrientationsWithEmitter"); ok {
		return nil
	}
	move, ok := d.Field("moveParticlesWithEmitter")
	if !ok {
		v, err := inst.Get("moveParticlesWithEmitter")
		if err != nil || v.IsNull() {
			v = shadow.Bool(false)
		}
		move = v
	}
	return d.SetField("rotateOrientationsWithEmitter", move)
}

// ============================================================
// Transforms
// ============================================================

// transform is the state shared by both transform classes. rotation is a
// Float in 2D and a Quaternion instance in 3D.
type transform struct {
	translation *shadow.Instance
	rotation    shadow.Value
	scale       float32
	matrix      *shadow.Instance
	typ         int32
}

// store writes the derived state to inst and replaces the buffered values,
// so the bulk assignment that follows agrees with it.
func (t *transform) store(inst *shadow.Instance, d *clyde.Decoder) error {
	vals := []struct {
		name string
		v    shadow.Value
	}{
		{"translation", objectValue(t.translation)},
		{"rotation", t.rotation},
		{"scale", shadow.Float(t.scale)},
		{"matrix", objectValue(t.matrix)},
	}
	for _, f := range vals {
		if _, ok := d.Field(f.name); ok {
			if err := d.SetField(f.name, f.v); err != nil {
				return err
			}
		}
		if err := inst.Set("_"+f.name, f.v); err != nil {
			return err
		}
	}
	return inst.Set("_type", shadow.Int(t.typ))
}

func readTransform2D(_ int, inst *shadow.Instance, d *clyde.Decoder) error {
	rotation := bufferedFloat(d, "rotation", 0)
	t := transform{
		translation: bufferedObject(d, "translation"),
		rotation:    shadow.Float(rotation),
		scale:       bufferedFloat(d, "scale", 1),
		matrix:      bufferedObject(d, "matrix"),
	}
	switch {
	case t.matrix != nil:
		t.typ = TypeGeneral
		if fieldFloat(t.matrix, "m02") == 0 && fieldFloat(t.matrix, "m12") == 0 && fieldFloat(t.matrix, "m22") == 1 {
			t.typ = TypeAffine
		}
	case t.translation == nil && rotation == 0 && t.scale == 1:
		t.typ = TypeIdentity
	default:
		if t.translation == nil {
			v, err := newInstance(inst.Template(), Vector2f)
			if err != nil {
				return err
			}
			t.translation = v
		}
		t.typ = rigidOrUniform(t.scale)
	}
	return t.store(inst, d)
}

func readTransform3D(_ int, inst *shadow.Instance, d *clyde.Decoder) error {
	rotation := bufferedObject(d, "rotation")
	t := transform{
		translation: bufferedObject(d, "translation"),
		rotation:    objectValue(rotation),
		scale:       bufferedFloat(d, "scale", 1),
		matrix:      bufferedObject(d, "matrix"),
	}
	switch {
	case t.matrix != nil:
		t.typ = TypeGeneral
		if fieldFloat(t.matrix, "m03") == 0 && fieldFloat(t.matrix, "m13") == 0 &&
			fieldFloat(t.matrix, "m23") == 0 && fieldFloat(t.matrix, "m33") == 1 {
			t.typ = TypeAffine
		}
	case t.translation == nil && rotation == nil && t.scale == 1:
		t.typ = TypeIdentity
	default:
		if t.translation == nil {
			v, err := newInstance(inst.Template(), Vector3f)
			if err != nil {
				return err
			}
			t.translation = v
		}
		if rotation == nil {
			q, err := newInstance(inst.Template(), Quaternion)
			if err != nil {
				return err
			}
			t.rotation = shadow.ObjectValue(q)
		}
		t.typ = rigidOrUniform(t.scale)
	}
	return t.store(inst, d)
}

func rigidOrUniform(scale float32) int32 {
	if scale == 1 {
		return TypeRigid
	}
	return TypeUniform
}

func objectValue(in *shadow.Instance) shadow.Value {
	if in == nil {
		return shadow.Null()
	}
	return shadow.ObjectValue(in)
}

func bufferedObject(d *clyde.Decoder, name string) *shadow.Instance {
	v, ok := d.Field(name)
	if !ok || v.IsNull() {
		return nil
	}
	in, err := v.AsObject()
	if err != nil {
		return nil
	}
	return in
}

func bufferedFloat(d *clyde.Decoder, name string, def float32) float32 {
	v, ok := d.Field(name)
	if !ok {
		return def
	}
	f, err := v.AsFloat64()
	if err != nil {
		return def
	}
	return float32(f)
}

// fieldFloat reads a numeric field, treating anything missing as zero.
func fieldFloat(in *shadow.Instance, name string) float32 {
	v, err := in.Get(name)
	if err != nil {
		return 0
	}
	f, err := v.AsFloat64()
	if err != nil {
		return 0
	}
	return float32(f)
}
