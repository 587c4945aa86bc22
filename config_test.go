package main

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/seqsense/pcdclick/model/regiongrow"
)

func TestLoadModel(t *testing.T) {
	testCases := map[string]struct {
		content string
		ok      bool
	}{
		"RegionGrow":     {"type: regiongrow\n", true},
		"WithParameters": {"type: regiongrow\ndistance: 0.05\nrange: 3\n", true},
		"UnknownType":    {"type: minkowski\n", false},
		"NoType":         {"distance: 0.05\n", false},
		"UnknownKey":     {"type: regiongrow\nweights: x.pth\n", false},
		"InvalidParams":  {"type: regiongrow\nrange: 0\n", false},
		"TwoDocuments":   {"type: regiongrow\n---\ntype: regiongrow\n", false},
	}
	for name, tt := range testCases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "/model.yaml", []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			m, err := loadModel(fs, "/model.yaml", nil)
			if tt.ok {
				if err != nil {
					t.Fatal(err)
				}
				if _, ok := m.(*regiongrow.Segmenter); !ok {
					t.Errorf("Expected regiongrow segmenter, got %T", m)
				}
			} else if err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestEvalConfig_Defaults(t *testing.T) {
	cfg := defaultEvalConfig()
	p := cfg.params()
	if p.PointsPerObject != 5 || p.ClickRadius != 0.1 || p.Downsample != 0 {
		t.Errorf("Unexpected default parameters %+v", p)
	}
	if cfg.MaxImages != 20 || cfg.VoxelSize != 0.05 || cfg.BatchSize != 1 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if len(cfg.ClassNames) != 13 {
		t.Errorf("Expected 13 class names, got %d", len(cfg.ClassNames))
	}
}
