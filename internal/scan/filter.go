package scan

import (
	"sort"
	"strings"
)

// FilesWithExtensions walks root and returns root-relative paths of files whose
// extensions match any entry in exts, sorted. Extensions are case-insensitive
// and may be provided with or without a leading dot.
func FilesWithExtensions(root string, exts []string, opts Options) ([]string, error) {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	if len(allowed) == 0 {
		return nil, nil
	}

	var files []string
	err := Walk(root, opts, func(fv FileVisit) {
		if fv.IsDir || fv.Ext == "" {
			return
		}
		if _, ok := allowed[fv.Ext]; ok {
			files = append(files, fv.Path)
		}
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
