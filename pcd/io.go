package pcd

import (
	"math"

	"github.com/pkg/errors"
	"github.com/seqsense/pcgol/pc"
	"github.com/spf13/afero"
)

// Load reads a PCD file. The file must have x, y, z and either a group or
// a label field.
func Load(fs afero.Fs, path string) (*Area, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	pp, err := pc.Unmarshal(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	a, err := FromPointCloud(pp)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return a, nil
}

// FromPointCloud converts a parsed PCD into an Area.
func FromPointCloud(pp *pc.PointCloud) (*Area, error) {
	n := pp.Points
	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, errors.Wrap(err, "reading positions")
	}
	a := &Area{
		Positions: make(pc.Vec3Slice, n),
		Colors:    make([][3]float32, n),
		Groups:    make([]uint32, n),
	}
	for i := 0; i < n; i++ {
		a.Positions[i] = it.Vec3At(i)
	}

	groupField := FieldGroup
	if !hasField(pp, groupField) {
		groupField = FieldLabel
	}
	if !hasField(pp, groupField) {
		return nil, errors.New("no group or label field")
	}
	if err := readUint32(pp, groupField, a.Groups); err != nil {
		return nil, err
	}

	if hasField(pp, FieldClass) {
		a.Classes = make([]uint32, n)
		if err := readUint32(pp, FieldClass, a.Classes); err != nil {
			return nil, err
		}
	}

	switch {
	case hasField(pp, FieldRGB):
		packed := make([]uint32, n)
		if err := readPackedRGB(pp, packed); err != nil {
			return nil, err
		}
		for i, v := range packed {
			a.Colors[i] = unpackRGB(v)
		}
	case hasField(pp, "r") && hasField(pp, "g") && hasField(pp, "b"):
		if err := readColorChannels(pp, a.Colors); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Save writes the area as a binary PCD file with x, y, z, rgb, label and,
// when present, class fields.
func Save(fs afero.Fs, path string, a *Area) error {
	pp := ToPointCloud(a)
	f, err := fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := pc.Marshal(pp, f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return f.Close()
}

// ToPointCloud converts an Area into a PCD structure.
func ToPointCloud(a *Area) *pc.PointCloud {
	fields := []string{"x", "y", "z", FieldRGB, FieldLabel}
	if a.Classes != nil {
		fields = append(fields, FieldClass)
	}
	size := make([]int, len(fields))
	typ := make([]string, len(fields))
	count := make([]int, len(fields))
	for i := range fields {
		size[i] = 4
		count[i] = 1
		if i < 3 {
			typ[i] = "F"
		} else {
			typ[i] = "U"
		}
	}
	n := a.Len()
	pp := &pc.PointCloud{
		PointCloudHeader: pc.PointCloudHeader{
			Version:   0.7,
			Fields:    fields,
			Size:      size,
			Type:      typ,
			Count:     count,
			Width:     n,
			Height:    1,
			Viewpoint: []float32{0, 0, 0, 1, 0, 0, 0},
		},
		Points: n,
	}
	pp.Data = make([]byte, n*pp.Stride())
	if n == 0 {
		return pp
	}

	it, _ := pp.Vec3Iterator()
	ct, _ := pp.Uint32Iterator(FieldRGB)
	lt, _ := pp.Uint32Iterator(FieldLabel)
	for i := 0; i < n; i++ {
		it.SetVec3(a.Positions[i])
		ct.SetUint32(packRGB(a.Colors[i]))
		lt.SetUint32(a.Groups[i])
		it.Incr()
		ct.Incr()
		lt.Incr()
	}
	if a.Classes != nil {
		kt, _ := pp.Uint32Iterator(FieldClass)
		for i := 0; i < n; i++ {
			kt.SetUint32(a.Classes[i])
			kt.Incr()
		}
	}
	return pp
}

func hasField(pp *pc.PointCloud, name string) bool {
	for _, f := range pp.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// field returns the type and byte size of a single valued field.
func field(pp *pc.PointCloud, name string) (string, int, error) {
	for i, f := range pp.Fields {
		if f != name {
			continue
		}
		if pp.Count[i] != 1 {
			return "", 0, errors.Errorf("%s: %d elements per point not supported", name, pp.Count[i])
		}
		return pp.Type[i], pp.Size[i], nil
	}
	return "", 0, errors.Errorf("no %s field", name)
}

// readUint32 reads an id field. Float fields are accepted when they hold
// non-negative integers.
func readUint32(pp *pc.PointCloud, name string, out []uint32) error {
	typ, size, err := field(pp, name)
	if err != nil {
		return err
	}
	if size != 4 {
		return errors.Errorf("%s: unsupported field size %d", name, size)
	}
	switch typ {
	case "U", "I":
		it, err := pp.Uint32Iterator(name)
		if err != nil {
			return errors.Wrapf(err, "reading %s", name)
		}
		for i := range out {
			v := it.Uint32()
			if typ == "I" && int32(v) < 0 {
				return errors.Errorf("%s: negative value %d at %d", name, int32(v), i)
			}
			out[i] = v
			it.Incr()
		}
	case "F":
		it, err := pp.Float32Iterator(name)
		if err != nil {
			return errors.Wrapf(err, "reading %s", name)
		}
		for i := range out {
			v := float64(it.Float32())
			if !(v >= 0 && v <= math.MaxUint32) || v != math.Trunc(v) {
				return errors.Errorf("%s: value %g at %d is not an id", name, v, i)
			}
			out[i] = uint32(v)
			it.Incr()
		}
	default:
		return errors.Errorf("%s: unsupported field type %q", name, typ)
	}
	return nil
}

// readPackedRGB reads the raw bits of a packed rgb field, stored either as
// an unsigned or as a float field.
func readPackedRGB(pp *pc.PointCloud, out []uint32) error {
	_, size, err := field(pp, FieldRGB)
	if err != nil {
		return err
	}
	if size != 4 {
		return errors.Errorf("%s: unsupported field size %d", FieldRGB, size)
	}
	it, err := pp.Uint32Iterator(FieldRGB)
	if err != nil {
		return errors.Wrapf(err, "reading %s", FieldRGB)
	}
	for i := range out {
		out[i] = it.Uint32()
		it.Incr()
	}
	return nil
}

func readColorChannels(pp *pc.PointCloud, out [][3]float32) error {
	var max float32
	for c, name := range []string{"r", "g", "b"} {
		typ, size, err := field(pp, name)
		if err != nil {
			return err
		}
		if size != 4 || (typ != "F" && typ != "U") {
			return errors.Errorf("%s: unsupported field %s%d", name, typ, size)
		}
		if typ == "U" {
			it, err := pp.Uint32Iterator(name)
			if err != nil {
				return errors.Wrapf(err, "reading %s", name)
			}
			for i := range out {
				out[i][c] = float32(it.Uint32())
				it.Incr()
			}
		} else {
			it, err := pp.Float32Iterator(name)
			if err != nil {
				return errors.Wrapf(err, "reading %s", name)
			}
			for i := range out {
				out[i][c] = it.Float32()
				it.Incr()
			}
		}
		for i := range out {
			if out[i][c] > max {
				max = out[i][c]
			}
		}
	}
	if max > 1 {
		// 0-255 encoded channels
		for i := range out {
			for c := range out[i] {
				out[i][c] /= 255
			}
		}
	}
	return nil
}
