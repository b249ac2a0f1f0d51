package docskema

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/docskema/i18n"
)

// Document is an instance constructed from a compiled schema and raw input.
// Field values are coerced according to the schema's paths: Embedded paths
// hold child documents, Mixed paths hold the raw value verbatim.
//
// A Document is not safe for concurrent mutation.
type Document struct {
	schema    *Schema
	parent    *Document
	values    map[string]any
	presence  PresenceMap
	modified  map[string]struct{}
	castErrs  map[string]Issue
	errs      Issues
	validated bool
	isNew     bool
}

// NewDocument constructs a document from raw input. Undeclared keys follow
// the schema's unknown policy; cast failures are recorded on the document
// and reported by Validate, ValidateSync and Errors. The only construction
// error is a *StrictModeError under UnknownStrict.
func NewDocument(s *Schema, raw map[string]any) (*Document, error) {
	if s == nil {
		return nil, errors.New("docskema: nil schema")
	}
	return newDocument(s, nil, raw)
}

func newDocument(s *Schema, parent *Document, raw map[string]any) (*Document, error) {
	d := &Document{
		schema:   s,
		parent:   parent,
		values:   map[string]any{},
		presence: PresenceMap{},
		modified: map[string]struct{}{},
		castErrs: map[string]Issue{},
		isNew:    true,
	}
	if err := d.setTree("", raw); err != nil {
		return nil, err
	}
	if err := d.applyDefaults(); err != nil {
		return nil, err
	}
	return d, nil
}

// Schema returns the schema the document was constructed from.
func (d *Document) Schema() *Schema { return d.schema }

// Parent returns the owning document of an embedded subdocument, or nil.
func (d *Document) Parent() *Document { return d.parent }

// IsNew reports whether the document was built from caller input rather
// than decoded from stored BSON.
func (d *Document) IsNew() bool { return d.isNew }

// ID returns the _id value, or nil when the schema has no _id path.
func (d *Document) ID() any { return d.Get("_id") }

// Presence returns the presence flags recorded for path.
func (d *Document) Presence(path string) Presence { return d.presence[path] }

func (d *Document) setTree(prefix string, raw map[string]any) error {
	for _, k := range slices.Sorted(maps.Keys(raw)) {
		if err := d.set(joinPath(prefix, k), raw[k], true); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value stored at a dotted path. Embedded paths return the
// child *Document; array elements are addressed by index.
func (d *Document) Get(path string) any {
	segs := strings.Split(path, ".")
	var cur any = d.values
	for i, seg := range segs {
		if m, ok := mapRef(cur); ok {
			v, ok := m[seg]
			if !ok {
				return nil
			}
			cur = v
			continue
		}
		switch c := cur.(type) {
		case *Document:
			if c == nil {
				return nil
			}
			return c.Get(strings.Join(segs[i:], "."))
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil
			}
			cur = c[idx]
		default:
			return nil
		}
	}
	return cur
}

// Set assigns v to a dotted path, casting it like construction does.
func (d *Document) Set(path string, v any) error {
	return d.set(path, v, true)
}

func (d *Document) set(full string, v any, mark bool) error {
	if t := d.schema.paths[full]; t != nil {
		if err := d.setPath(full, t, v, PresenceSeen); err != nil {
			return err
		}
		if mark {
			d.markModified(full)
		}
		return nil
	}
	if d.schema.nested[full] {
		m, ok := objectValue(v)
		if !ok {
			if v == nil {
				d.clear(full)
				d.presence[full] |= PresenceSeen | PresenceWasNull
				return nil
			}
			d.castErrs[full] = d.issue(full, CodeObjectExpected, "", v, nil)
			return nil
		}
		d.clear(full)
		d.presence[full] |= PresenceSeen
		return d.setTree(full, m)
	}
	if p, t := d.owningPath(full); t != nil {
		return d.setBelow(p, t, full[len(p)+1:], v, mark)
	}
	switch d.schema.opts.Strict {
	case UnknownStrict:
		return &StrictModeError{Path: full}
	case UnknownPassthrough:
		d.store(full, cloneValue(v))
		d.presence[full] |= PresenceSeen
		if mark {
			d.markModified(full)
		}
	default:
		if l := d.schema.opts.Logger; l != nil {
			l.Debug("dropping undeclared key", "path", full)
		}
	}
	return nil
}

// owningPath finds the longest compiled path that is a proper prefix of full.
func (d *Document) owningPath(full string) (string, *SchemaType) {
	for i := strings.LastIndex(full, "."); i > 0; i = strings.LastIndex(full[:i], ".") {
		if t := d.schema.paths[full[:i]]; t != nil {
			return full[:i], t
		}
	}
	return "", nil
}

// setBelow writes into the value owned by path p: a subdocument, a Mixed
// object or an array element.
func (d *Document) setBelow(p string, t *SchemaType, rest string, v any, mark bool) error {
	switch {
	case t.instance == InstanceEmbedded:
		child, _ := d.Get(p).(*Document)
		if child == nil {
			nc, err := newDocument(t.schema, d, nil)
			if err != nil {
				return err
			}
			child = nc
			d.store(p, child)
		}
		if err := child.set(rest, v, mark); err != nil {
			return rebaseStrict(p, err)
		}
	case t.instance == InstanceMixed:
		d.store(p+"."+rest, cloneValue(v))
	case t.instance == InstanceArray:
		arr, _ := d.Get(p).([]any)
		head, tail, _ := strings.Cut(rest, ".")
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 || idx >= len(arr) {
			return nil
		}
		ep := p + "." + head
		if tail != "" {
			if sub, ok := arr[idx].(*Document); ok {
				return rebaseStrict(ep, sub.set(tail, v, mark))
			}
			return nil
		}
		delete(d.castErrs, ep)
		d.clearIssuesUnder(ep)
		cv, err := d.castElement(ep, t, v)
		if err != nil {
			return err
		}
		arr[idx] = cv
	default:
		return nil
	}
	if mark {
		d.markModified(p + "." + rest)
	}
	return nil
}

func rebaseStrict(base string, err error) error {
	var se *StrictModeError
	if errors.As(err, &se) {
		return &StrictModeError{Path: joinPath(base, se.Path)}
	}
	return err
}

func (d *Document) setPath(full string, t *SchemaType, v any, flag Presence) error {
	delete(d.castErrs, full)
	d.clearIssuesUnder(full)
	d.presence[full] |= flag
	if v == nil {
		d.presence[full] |= PresenceWasNull
		d.store(full, nil)
		return nil
	}
	switch t.instance {
	case InstanceEmbedded:
		child, err := d.subdocument(full, t.schema, v)
		if err != nil {
			return err
		}
		if child == nil {
			d.castErrs[full] = d.issue(full, CodeCastError, t.instance, v, nil)
			return nil
		}
		d.store(full, child)
	case InstanceArray:
		elems, ok := asSlice(v)
		if !ok {
			elems = []any{v}
		}
		out := make([]any, 0, len(elems))
		for i, e := range elems {
			cv, err := d.castElement(full+"."+strconv.Itoa(i), t, e)
			if err != nil {
				return err
			}
			out = append(out, cv)
		}
		d.store(full, out)
	default:
		cv, err := t.Cast(v)
		if err != nil {
			d.castErrs[full] = d.issue(full, CodeCastError, t.instance, v, err)
			return nil
		}
		d.store(full, cv)
	}
	return nil
}

// subdocument builds a child document for an Embedded path or a document
// array element. Undeclared keys of the raw value are handled by the child
// schema's unknown policy (dropped by default). A nil document with a nil
// error means v is not an object.
func (d *Document) subdocument(full string, s *Schema, v any) (*Document, error) {
	var raw map[string]any
	if x, ok := v.(*Document); ok {
		raw = x.ToObject(Minimize(false))
	} else if m, ok := objectValue(v); ok {
		raw = m
	} else {
		return nil, nil
	}
	child, err := newDocument(s, d, raw)
	if err != nil {
		return nil, rebaseStrict(full, err)
	}
	return child, nil
}

func (d *Document) castElement(path string, t *SchemaType, e any) (any, error) {
	if e == nil {
		return nil, nil
	}
	if t.docArray {
		child, err := d.subdocument(path, t.schema, e)
		if err != nil {
			return nil, err
		}
		if child == nil {
			d.castErrs[path] = d.issue(path, CodeCastError, InstanceEmbedded, e, nil)
			return nil, nil
		}
		return child, nil
	}
	if t.caster.instance == InstanceArray {
		inner, ok := asSlice(e)
		if !ok {
			inner = []any{e}
		}
		out := make([]any, 0, len(inner))
		for i, ie := range inner {
			cv, err := d.castElement(path+"."+strconv.Itoa(i), t.caster, ie)
			if err != nil {
				return nil, err
			}
			out = append(out, cv)
		}
		return out, nil
	}
	cv, err := t.caster.Cast(e)
	if err != nil {
		d.castErrs[path] = d.issue(path, CodeCastError, t.caster.instance, e, err)
		return nil, nil
	}
	return cv, nil
}

func (d *Document) applyDefaults() error {
	for _, p := range d.schema.order {
		t := d.schema.paths[p]
		if !t.hasDefault || d.presence[p]&PresenceSeen != 0 {
			continue
		}
		if _, failed := d.castErrs[p]; failed {
			continue
		}
		if err := d.setPath(p, t, t.Default(), PresenceDefaultApplied); err != nil {
			return err
		}
	}
	return nil
}

// store writes v into the value tree, creating intermediate containers.
func (d *Document) store(full string, v any) {
	segs := strings.Split(full, ".")
	cur := d.values
	for _, seg := range segs[:len(segs)-1] {
		next, ok := mapRef(cur[seg])
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}

// clear removes the subtree at full together with its bookkeeping.
func (d *Document) clear(full string) {
	segs := strings.Split(full, ".")
	cur := d.values
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
	prefix := full + "."
	for k := range d.presence {
		if k == full || strings.HasPrefix(k, prefix) {
			delete(d.presence, k)
		}
	}
	delete(d.castErrs, full)
	d.clearIssuesUnder(full)
}

func (d *Document) clearIssuesUnder(full string) {
	prefix := full + "."
	for k := range d.castErrs {
		if strings.HasPrefix(k, prefix) {
			delete(d.castErrs, k)
		}
	}
}

func (d *Document) markModified(path string) {
	d.modified[path] = struct{}{}
	d.validated = false
}

// MarkModified flags path as modified, e.g. after mutating a Mixed value in
// place.
func (d *Document) MarkModified(path string) { d.markModified(path) }

// IsModified reports whether path, one of its children or one of its parents
// was assigned since construction began.
func (d *Document) IsModified(path string) bool {
	for m := range d.modified {
		if m == path || strings.HasPrefix(m, path+".") || strings.HasPrefix(path, m+".") {
			return true
		}
	}
	return false
}

// ModifiedPaths returns the assigned paths in ascending order.
func (d *Document) ModifiedPaths() []string { return slices.Sorted(maps.Keys(d.modified)) }

// Invalidate records a validation issue for path. It is reported by Errors and
// by the next Validate or ValidateSync call until path is set again.
func (d *Document) Invalidate(path, message string, value any) {
	iss := d.issue(path, CodeUserDefined, "", value, nil)
	if message != "" {
		iss.Message = message
	}
	d.castErrs[path] = iss
	d.validated = false
}

func (d *Document) issue(path, code string, kind Instance, value any, cause error) Issue {
	data := map[string]string{"path": path, "value": fmt.Sprintf("%v", value)}
	if kind != "" {
		data["kind"] = string(kind)
	}
	return Issue{Path: path, Code: code, Message: i18n.T(code, data), Kind: string(kind), Value: value, Cause: cause}
}

// Validate runs every path validator, including context-aware ones, and
// reports cast failures recorded during construction. The result is also
// kept on the document and returned by Errors.
func (d *Document) Validate(ctx context.Context) error { return d.validate(ctx, true) }

// ValidateSync is Validate without context-aware validators.
func (d *Document) ValidateSync() error { return d.validate(context.Background(), false) }

func (d *Document) validate(ctx context.Context, withCtx bool) error {
	iss := d.collectIssues(ctx, withCtx)
	d.errs = iss
	d.validated = true
	if len(iss) == 0 {
		return nil
	}
	return &ValidationError{Issues: iss}
}

// Errors returns the issues of the last validation, or the cast failures
// recorded so far when the document has not been validated since its last
// change.
func (d *Document) Errors() Issues {
	if d.validated {
		return slices.Clone(d.errs)
	}
	return d.castIssues()
}

func (d *Document) castIssues() Issues {
	var iss Issues
	for _, k := range slices.Sorted(maps.Keys(d.castErrs)) {
		iss = AppendIssues(iss, d.castErrs[k])
	}
	d.eachChild(func(base string, child *Document) {
		iss = AppendIssues(iss, rebaseIssues(base, child.castIssues())...)
	})
	sortIssues(iss)
	return iss
}

func (d *Document) eachChild(fn func(base string, child *Document)) {
	for _, p := range d.schema.order {
		t := d.schema.paths[p]
		switch {
		case t.instance == InstanceEmbedded:
			if child, ok := d.Get(p).(*Document); ok && child != nil {
				fn(p, child)
			}
		case t.docArray:
			arr, _ := d.Get(p).([]any)
			for i, e := range arr {
				if child, ok := e.(*Document); ok && child != nil {
					fn(p+"."+strconv.Itoa(i), child)
				}
			}
		}
	}
}

func (d *Document) collectIssues(ctx context.Context, withCtx bool) Issues {
	var iss Issues
	for _, k := range slices.Sorted(maps.Keys(d.castErrs)) {
		iss = AppendIssues(iss, d.castErrs[k])
	}
	for _, p := range d.schema.order {
		if _, failed := d.castErrs[p]; failed {
			continue
		}
		t := d.schema.paths[p]
		v := d.Get(p)
		iss = AppendIssues(iss, d.runValidators(ctx, withCtx, p, t, v)...)
		if t.instance == InstanceArray && t.caster != nil && len(t.caster.validators) > 0 {
			arr, _ := v.([]any)
			for i, e := range arr {
				ep := p + "." + strconv.Itoa(i)
				if _, failed := d.castErrs[ep]; failed {
					continue
				}
				iss = AppendIssues(iss, d.runValidators(ctx, withCtx, ep, t.caster, e)...)
			}
		}
	}
	d.eachChild(func(base string, child *Document) {
		iss = AppendIssues(iss, rebaseIssues(base, child.collectIssues(ctx, withCtx))...)
	})
	sortIssues(iss)
	if len(iss) == 0 {
		return nil
	}
	return iss
}

func (d *Document) runValidators(ctx context.Context, withCtx bool, path string, t *SchemaType, v any) Issues {
	var iss Issues
	for _, val := range t.validators {
		if val.code != CodeRequired && v == nil {
			continue
		}
		if val.async && !withCtx {
			continue
		}
		err := val.check(ctx, v)
		if err == nil {
			continue
		}
		data := map[string]string{"path": path, "value": fmt.Sprintf("%v", v), "kind": string(t.instance)}
		for k, pv := range val.params {
			data[k] = fmt.Sprintf("%v", pv)
		}
		it := Issue{Path: path, Code: val.code, Kind: string(t.instance), Value: v, Params: val.params}
		switch {
		case val.message != "":
			it.Message = val.message
		case !errors.Is(err, errValidatorFailed):
			it.Message = err.Error()
			it.Cause = err
		default:
			it.Message = i18n.T(val.code, data)
		}
		iss = AppendIssues(iss, it)
		if val.code == CodeRequired {
			break
		}
	}
	return iss
}

func sortIssues(iss Issues) {
	sort.SliceStable(iss, func(i, j int) bool { return iss[i].Path < iss[j].Path })
}
