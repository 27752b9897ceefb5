package project

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
)

type pom struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Name       string `xml:"name"`
	Parent     struct {
		GroupID string `xml:"groupId"`
	} `xml:"parent"`
	Modules []string `xml:"modules>module"`
}

// detectMaven reads pom.xml; modules come from <modules>.
func detectMaven(dir string) (*Layout, error) {
	pomPath := filepath.Join(dir, "pom.xml")
	data, err := readIfExists(pomPath)
	if err != nil || data == nil {
		return nil, err
	}

	var p pom
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pomPath, err)
	}

	groupID := strings.TrimSpace(p.GroupID)
	if groupID == "" {
		groupID = strings.TrimSpace(p.Parent.GroupID)
	}
	id := strings.TrimSpace(p.ArtifactID)
	if groupID != "" {
		id = groupID + ":" + id
	}

	modules, err := normalizeModules(dir, p.Modules)
	if err != nil {
		return nil, err
	}

	return &Layout{
		Dir:        dir,
		ID:         id,
		Name:       strings.TrimSpace(p.Name),
		Type:       TypeMaven,
		ModuleDirs: modules,
		SourceDirs: []string{"src/main/java", "src/main/resources"},
		TestDirs:   []string{"src/test/java", "src/test/resources"},
		DocDirs:    []string{"src/site"},
	}, nil
}
