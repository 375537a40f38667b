package model

// moduleKey identifies a module as it was spelled in a from-import together
// with the file it resolved to.
type moduleKey struct {
	module string
	path   string
}

// ModuleUsage is the observed public surface of one local module.
type ModuleUsage struct {
	ImportedFrom map[string]struct{}
	Accessed     map[string]struct{}
}

// Observed returns the union of imported-from and accessed names, without
// the wildcard marker.
func (u ModuleUsage) Observed() map[string]struct{} {
	out := make(map[string]struct{}, len(u.ImportedFrom)+len(u.Accessed))
	for n := range u.ImportedFrom {
		out[n] = struct{}{}
	}
	for n := range u.Accessed {
		out[n] = struct{}{}
	}
	delete(out, "*")
	return out
}

// Aggregate is the project-wide merge of every file's facts. It is not safe
// for concurrent use; callers merge files one at a time.
type Aggregate struct {
	imported     map[string]struct{}
	importedFrom map[moduleKey]map[string]struct{}
	accesses     map[AttributeAccess]struct{}
	attrsByPath  map[string]map[string]struct{}
	files        []*FileFacts
}

// NewAggregate creates an empty Aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		imported:     make(map[string]struct{}),
		importedFrom: make(map[moduleKey]map[string]struct{}),
		accesses:     make(map[AttributeAccess]struct{}),
		attrsByPath:  make(map[string]map[string]struct{}),
	}
}

// Merge folds one file's facts into the aggregate.
func (a *Aggregate) Merge(f *FileFacts) {
	a.files = append(a.files, f)

	for _, name := range f.Imported {
		a.imported[name] = struct{}{}
	}

	for _, u := range f.From {
		key := moduleKey{u.Module, u.Path}
		names := a.importedFrom[key]
		if names == nil {
			names = make(map[string]struct{})
			a.importedFrom[key] = names
		}
		for _, n := range u.Names {
			names[n] = struct{}{}
		}
	}

	for _, acc := range f.Accesses {
		a.accesses[acc] = struct{}{}
		if acc.Path == "" {
			continue
		}
		attrs := a.attrsByPath[acc.Path]
		if attrs == nil {
			attrs = make(map[string]struct{})
			a.attrsByPath[acc.Path] = attrs
		}
		attrs[acc.Attr] = struct{}{}
	}
}

// Files returns the merged files in merge order.
func (a *Aggregate) Files() []*FileFacts {
	return a.files
}

// Imported returns every distinct qualified name of a plain import, sorted.
func (a *Aggregate) Imported() []string {
	return SortedKeys(a.imported)
}

// AccessedByPath maps each resolved module path to its sorted accessed
// attribute names.
func (a *Aggregate) AccessedByPath() map[string][]string {
	out := make(map[string][]string, len(a.attrsByPath))
	for path, attrs := range a.attrsByPath {
		out[path] = SortedKeys(attrs)
	}
	return out
}

// ImportedFromByModule maps each module name to the sorted names imported
// from it, restricted to modules that resolved to a local file. A module
// name reached through more than one path contributes the union.
func (a *Aggregate) ImportedFromByModule() map[string][]string {
	merged := make(map[string]map[string]struct{})
	for key, names := range a.importedFrom {
		if key.path == "" {
			continue
		}
		set := merged[key.module]
		if set == nil {
			set = make(map[string]struct{})
			merged[key.module] = set
		}
		for n := range names {
			set[n] = struct{}{}
		}
	}
	out := make(map[string][]string, len(merged))
	for module, names := range merged {
		out[module] = SortedKeys(names)
	}
	return out
}

// ModulePaths returns every distinct resolved local module path referenced
// by a from-import or an attribute access, sorted.
func (a *Aggregate) ModulePaths() []string {
	set := make(map[string]struct{})
	for key := range a.importedFrom {
		if key.path != "" {
			set[key.path] = struct{}{}
		}
	}
	for path := range a.attrsByPath {
		set[path] = struct{}{}
	}
	return SortedKeys(set)
}

// Usage returns the observed usage of the module at path.
func (a *Aggregate) Usage(path string) ModuleUsage {
	u := ModuleUsage{
		ImportedFrom: make(map[string]struct{}),
		Accessed:     make(map[string]struct{}),
	}
	for key, names := range a.importedFrom {
		if key.path != path {
			continue
		}
		for n := range names {
			u.ImportedFrom[n] = struct{}{}
		}
	}
	for n := range a.attrsByPath[path] {
		u.Accessed[n] = struct{}{}
	}
	return u
}
