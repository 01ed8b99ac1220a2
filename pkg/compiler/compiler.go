// Package compiler turns a spec document into a live Metabase dashboard:
// one dashboard object, one card per query-backed component, a batched
// dashcard layout update, and a batched parameter update.
package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/dashforge/dashforge/pkg/grid"
	"github.com/dashforge/dashforge/pkg/loggers"
	"github.com/dashforge/dashforge/pkg/metabase"
	"github.com/dashforge/dashforge/pkg/params"
	"github.com/dashforge/dashforge/pkg/spec"
	"github.com/dashforge/dashforge/pkg/viz"
	"go.uber.org/zap"
)

var (
	zaplog *zap.Logger = loggers.ZapLogger()
)

// Request is one compile invocation: a validated spec plus the target
// database and optional collection.
type Request struct {
	Doc          *spec.Document
	DatabaseID   int
	CollectionID *int
}

type Result struct {
	DashboardID  int    `json:"dashboard_id"`
	DashboardURL string `json:"dashboard_url"`
	CardsCreated int    `json:"cards_created"`
}

// dashcard is a card placement in the dashboard's batched layout update.
type dashcard struct {
	ID     int `json:"id"`
	CardID int `json:"card_id"`
	grid.DashcardPosition
}

// Compile executes the backend calls in strict order: dashboard, cards in
// spec order, one dashcards update, one parameters update. Any non-auth
// backend failure aborts the remaining steps; nothing already created is
// rolled back.
func Compile(session *metabase.Session, req Request) (*Result, error) {
	doc := req.Doc

	dashboardPayload := map[string]interface{}{
		"name":        doc.Title(),
		"description": doc.Description(),
	}
	if req.CollectionID != nil {
		dashboardPayload["collection_id"] = *req.CollectionID
	}

	data, err := session.Post("/dashboard", dashboardPayload)
	if err != nil {
		return nil, err
	}
	var dashboard struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(data, &dashboard); err != nil {
		return nil, fmt.Errorf("unexpected dashboard response: %w", err)
	}

	columns := doc.GridColumns()
	dashcards := []dashcard{}

	for _, section := range doc.Sections {
		sectionPos := grid.SectionPosition(section.Position)

		for idx, component := range section.Components {
			if component.QueryID == "" {
				continue
			}
			query, ok := doc.Queries[component.QueryID]
			if !ok {
				// Validation already flagged this; skip at compile time.
				continue
			}

			card, err := createCard(session, req, component, query, idx)
			if err != nil {
				return nil, err
			}

			position, err := grid.Convert(grid.ResolvePlacement(sectionPos, component.Position), columns)
			if err != nil {
				return nil, err
			}

			dashcards = append(dashcards, dashcard{
				ID:               card,
				CardID:           card,
				DashcardPosition: position,
			})
		}
	}

	if len(dashcards) > 0 {
		_, err = session.Put(fmt.Sprintf("/dashboard/%d", dashboard.ID), map[string]interface{}{
			"dashcards": dashcards,
		})
		if err != nil {
			return nil, err
		}
	}

	parameters := params.Build(doc.Filters)
	if len(parameters) > 0 {
		_, err = session.Put(fmt.Sprintf("/dashboard/%d", dashboard.ID), map[string]interface{}{
			"parameters": parameters,
		})
		if err != nil {
			return nil, err
		}
	}

	zaplog.Sugar().Infof("compiled dashboard %d with %d cards", dashboard.ID, len(dashcards))

	return &Result{
		DashboardID:  dashboard.ID,
		DashboardURL: fmt.Sprintf("%s/dashboard/%d", session.BaseURL(), dashboard.ID),
		CardsCreated: len(dashcards),
	}, nil
}

func createCard(session *metabase.Session, req Request, component spec.Component, query spec.Query, idx int) (int, error) {
	sql := query.SQL
	if sql == "" {
		// The query is declared without inline SQL; compile a visibly
		// stubbed card rather than failing the whole dashboard.
		sql = fmt.Sprintf("-- Query: %s\nSELECT 1", component.QueryID)
	}

	cardPayload := map[string]interface{}{
		"name": cardName(component, idx),
		"dataset_query": map[string]interface{}{
			"type": "native",
			"native": map[string]interface{}{
				"query":         sql,
				"template-tags": map[string]interface{}{},
			},
			"database": req.DatabaseID,
		},
		"display":                viz.MapDisplayType(component.Type),
		"visualization_settings": viz.BuildSettings(component.Type, component.Config),
	}
	if req.CollectionID != nil {
		cardPayload["collection_id"] = *req.CollectionID
	}

	data, err := session.Post("/card", cardPayload)
	if err != nil {
		return 0, err
	}

	var card struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(data, &card); err != nil {
		return 0, fmt.Errorf("unexpected card response: %w", err)
	}

	return card.ID, nil
}

func cardName(component spec.Component, idx int) string {
	if component.Config != nil && component.Config.Title != "" {
		return component.Config.Title
	}
	if component.ID != "" {
		return component.ID
	}
	return fmt.Sprintf("Card %d", idx)
}
