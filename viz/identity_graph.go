// ABOUTME: Identity graph linking each email to the source records that share it
// ABOUTME: Shows how one person reached the firm through several intake forms
package viz

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/leadbook/models"
)

// GraphFormat selects the rendered output.
type GraphFormat string

const (
	FormatDOT GraphFormat = "dot"
	FormatSVG GraphFormat = "svg"
)

func (f GraphFormat) graphviz() (graphviz.Format, error) {
	switch f {
	case "", FormatDOT:
		return graphviz.XDOT, nil
	case FormatSVG:
		return graphviz.SVG, nil
	default:
		return "", fmt.Errorf("unsupported graph format %q", f)
	}
}

var originColors = map[models.Origin]string{
	models.OriginValuation:    "#e07a5f",
	models.OriginContact:      "#3d405b",
	models.OriginCollaborator: "#81b29a",
	models.OriginAcquisition:  "#f2cc8f",
	models.OriginInquiry:      "#6d597a",
	models.OriginGeneral:      "#b5838d",
	models.OriginAdvisor:      "#457b9d",
}

// GenerateIdentityGraph draws one box per email and one ellipse per record.
// Unless includeSingles is set only emails seen more than once are drawn.
func GenerateIdentityGraph(ctx context.Context, view []models.Contact, format GraphFormat, includeSingles bool) (string, error) {
	gvFormat, err := format.graphviz()
	if err != nil {
		return "", err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel("Lead identities")

	groups := make(map[string][]models.Contact)
	for _, c := range view {
		if models.NormalizeEmail(c.Email) == "" {
			continue
		}
		id := c.IdentityKey()
		groups[id] = append(groups[id], c)
	}

	identities := make([]string, 0, len(groups))
	for id, records := range groups {
		if len(records) > 1 || includeSingles {
			identities = append(identities, id)
		}
	}
	sort.Strings(identities)

	for _, id := range identities {
		identity, err := graph.CreateNodeByName("identity:" + id)
		if err != nil {
			return "", fmt.Errorf("failed to create identity node: %w", err)
		}
		identity.SetLabel(id)
		identity.SetShape(cgraph.BoxShape)

		for _, c := range groups[id] {
			key := c.Key().String()
			record, err := graph.CreateNodeByName(key)
			if err != nil {
				return "", fmt.Errorf("failed to create record node: %w", err)
			}
			record.SetLabel(fmt.Sprintf("%s\n%s · %s", c.Name, c.Origin, c.CreatedAt.Format("2006-01-02")))
			record.SetShape(cgraph.EllipseShape)
			record.SetStyle(cgraph.FilledNodeStyle)
			record.SetFillColor(originColors[c.Origin])
			record.SetFontColor("white")

			edge, err := graph.CreateEdgeByName(key, identity, record)
			if err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetLabel(string(c.Priority))
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, gvFormat, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
