package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// DefaultNamespace is used when metadata.namespace is omitted.
const DefaultNamespace = "default"

// Bundle is the validated content of one manifest file.
type Bundle struct {
	Workloads []workload.WorkloadSpec
	Services  []workload.ServiceSpec
}

// Len returns the number of objects in the bundle.
func (b *Bundle) Len() int {
	return len(b.Workloads) + len(b.Services)
}

type scheduleValidator interface {
	Validate(expr, tz string) error
}

// Parser decodes and validates manifest files.
type Parser struct {
	schedules scheduleValidator
}

// NewParser creates a parser. schedules validates restartSchedule expressions.
func NewParser(schedules scheduleValidator) *Parser {
	return &Parser{schedules: schedules}
}

// Parse decodes every YAML document in data and validates it.
// Either every document is accepted or the returned error lists all violations.
func (p *Parser) Parse(data []byte) (*Bundle, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	bundle := &Bundle{}
	seen := make(map[string]int)

	var errs []error

	for doc := 1; ; doc++ {
		var node yaml.Node

		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			// the decoder cannot resync after a syntax error
			errs = append(errs, &ValidationError{Document: doc, Reason: "malformed yaml: " + err.Error()})

			break
		}

		if isEmptyDocument(&node) {
			continue
		}

		errs = append(errs, p.parseDocument(doc, &node, bundle, seen)...)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if bundle.Len() == 0 {
		return nil, &ValidationError{Document: 1, Reason: "no documents found"}
	}

	if errs := podNameConflicts(bundle, seen); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return bundle, nil
}

// podNameConflicts rejects workloads whose pods would reuse a pod name
// of another workload in the bundle, e.g. Pod web-0 next to Deployment web.
func podNameConflicts(bundle *Bundle, seen map[string]int) []error {
	var errs []error

	for _, c := range workload.FindPodNameConflicts(bundle.Workloads) {
		verr := &ValidationError{
			Document: seen["workload/"+c.Claimant],
			Field:    "metadata.name",
			Reason:   fmt.Sprintf("pod %s is already created by workload %s", c.Pod, c.Owner),
		}

		for i := range bundle.Workloads {
			if spec := &bundle.Workloads[i]; spec.Key() == c.Claimant {
				verr.Kind, verr.Name = string(spec.Kind), spec.Name
			}
		}

		errs = append(errs, verr)
	}

	return errs
}

func (p *Parser) parseDocument(
	doc int,
	node *yaml.Node,
	bundle *Bundle,
	seen map[string]int,
) []error {
	fe := &fieldErrors{document: doc}

	var h header
	if err := node.Decode(&h); err != nil {
		fe.add("", "document must be a mapping")

		return fe.errs
	}

	fe.kind = h.Kind

	switch workload.Kind(h.Kind) {
	case workload.KindPod:
		var d podDocument
		if !strictDecode(fe, node, &d) {
			return fe.errs
		}

		fe.name = d.Metadata.Name
		spec := p.podWorkload(fe, &d)
		p.checkDuplicate(fe, seen, "workload/"+spec.Key(), doc)

		if len(fe.errs) == 0 {
			bundle.Workloads = append(bundle.Workloads, spec)
		}
	case workload.KindDeployment:
		var d deploymentDocument
		if !strictDecode(fe, node, &d) {
			return fe.errs
		}

		fe.name = d.Metadata.Name
		spec := p.deploymentWorkload(fe, &d)
		p.checkDuplicate(fe, seen, "workload/"+spec.Key(), doc)

		if len(fe.errs) == 0 {
			bundle.Workloads = append(bundle.Workloads, spec)
		}
	case workload.KindService:
		var d serviceDocument
		if !strictDecode(fe, node, &d) {
			return fe.errs
		}

		fe.name = d.Metadata.Name
		svc := serviceFromDocument(fe, &d)
		p.checkDuplicate(fe, seen, "service/"+svc.Key(), doc)

		if len(fe.errs) == 0 {
			bundle.Services = append(bundle.Services, svc)
		}
	case "":
		fe.add("kind", "required")
	default:
		fe.add("kind", fmt.Sprintf("unsupported kind %q, want Pod, Deployment or Service", h.Kind))
	}

	return fe.errs
}

func (p *Parser) checkDuplicate(fe *fieldErrors, seen map[string]int, key string, doc int) {
	if prev, ok := seen[key]; ok {
		fe.add("metadata.name", fmt.Sprintf("duplicates the object in document %d", prev))

		return
	}

	seen[key] = doc
}

// strictDecode re-encodes the node so unknown fields are rejected.
func strictDecode(fe *fieldErrors, node *yaml.Node, out any) bool {
	raw, err := yaml.Marshal(node)
	if err != nil {
		fe.add("", "re-encode document: "+err.Error())

		return false
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	err = dec.Decode(out)
	if err == nil {
		return true
	}

	// decoder messages refer to lines of the re-encoded text
	var reencoded yaml.Node
	if yaml.Unmarshal(raw, &reencoded) != nil {
		reencoded = yaml.Node{}
	}

	fields := indexFields(&reencoded)

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		for _, msg := range typeErr.Errors {
			fe.add(fields.locate(msg))
		}

		return false
	}

	fe.add(fields.locate(err.Error()))

	return false
}

func isEmptyDocument(node *yaml.Node) bool {
	if node.Kind == 0 {
		return true
	}

	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}

		inner := node.Content[0]

		return inner.Kind == yaml.ScalarNode && inner.Tag == "!!null"
	}

	return false
}
