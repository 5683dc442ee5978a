package remote

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// commentRow is a comment as stored in either comment table.
type commentRow struct {
	models.Comment
	ServiceJobID  string `json:"service_job_id"`
	RequirementID string `json:"requirement_id"`
}

func (r commentRow) parentID() string {
	if r.ServiceJobID != "" {
		return r.ServiceJobID
	}
	return r.RequirementID
}

// nested is a parent table whose comments live in a second table and whose attachments live in
// the attachments table. Reads assemble the full shape with a fixed number of requests.
type nested[T any, I models.Input[T], P any, PT models.NestedPtr[T]] struct {
	*table[T, I, P, PT]
	objects       *ObjectStore
	attachments   *attachments
	entityType    models.EntityType
	commentTable  string
	commentColumn string
}

func (n *nested[T, I, P, PT]) List(ctx context.Context) ([]T, error) {
	rows, err := n.table.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := n.assemble(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (n *nested[T, I, P, PT]) Get(ctx context.Context, id string) (*T, error) {
	row, err := n.table.Get(ctx, id)
	if err != nil || row == nil {
		return row, err
	}
	return n.assembleOne(ctx, row)
}

func (n *nested[T, I, P, PT]) Create(ctx context.Context, input I) (*T, error) {
	row, err := n.table.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return n.assembleOne(ctx, row)
}

func (n *nested[T, I, P, PT]) Update(ctx context.Context, id string, patch P) (*T, error) {
	row, err := n.table.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return n.assembleOne(ctx, row)
}

func (n *nested[T, I, P, PT]) commentType() models.EntityType {
	return models.CommentEntityType(n.entityType)
}

func (n *nested[T, I, P, PT]) commentPath() string {
	return "/rest/v1/" + n.commentTable
}

func (n *nested[T, I, P, PT]) selectComments(ctx context.Context, filters map[string]string) ([]models.Comment, error) {
	query := url.Values{"select": {"*"}, "order": {"timestamp.desc"}}
	for column, filter := range filters {
		query.Set(column, filter)
	}

	var rows []models.Comment
	if err := n.api.doJSON(ctx, http.MethodGet, n.commentPath(), query, nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (n *nested[T, I, P, PT]) ListComments(ctx context.Context, parentID string) ([]models.Comment, error) {
	comments, err := n.selectComments(ctx, map[string]string{n.commentColumn: eq(parentID)})
	if err != nil {
		return nil, n.api.fail(ctx, err, "list "+n.commentTable, n.entity, parentID)
	}
	if err := n.attachComments(ctx, comments, nil); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (n *nested[T, I, P, PT]) AddComment(ctx context.Context, parentID string, input models.CommentInput) (*models.Comment, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}

	comment := input.Entity(storage.NewID(), models.Now())
	body := map[string]any{
		"id":            comment.ID,
		"text":          comment.Text,
		"author":        comment.Author,
		"timestamp":     comment.Timestamp,
		n.commentColumn: parentID,
	}

	var rows []models.Comment
	if err := n.api.doJSON(ctx, http.MethodPost, n.commentPath(), url.Values{"select": {"*"}}, body, representation, &rows); err != nil {
		return nil, n.api.fail(ctx, err, "add comment", n.entity, parentID)
	}
	if len(rows) > 0 {
		comment = rows[0]
	}
	comment.Attachments = []models.Attachment{}
	return &comment, nil
}

func (n *nested[T, I, P, PT]) UpdateComment(ctx context.Context, parentID, commentID string, patch models.CommentPatch) (*models.Comment, error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	body, err := rowBody(patch)
	if err != nil {
		return nil, err
	}

	filters := map[string]string{"id": eq(commentID), n.commentColumn: eq(parentID)}
	var rows []models.Comment
	if len(body) == 0 {
		rows, err = n.selectComments(ctx, filters)
	} else {
		query := url.Values{"select": {"*"}}
		for column, filter := range filters {
			query.Set(column, filter)
		}
		err = n.api.doJSON(ctx, http.MethodPatch, n.commentPath(), query, body, representation, &rows)
	}
	if err != nil {
		return nil, n.api.fail(ctx, err, "update comment", string(n.commentType()), commentID)
	}
	if len(rows) == 0 {
		return nil, storage.NotFound(string(n.commentType()), commentID)
	}

	if err := n.attachComments(ctx, rows, nil); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (n *nested[T, I, P, PT]) DeleteComment(ctx context.Context, parentID, commentID string) error {
	query := url.Values{"id": {eq(commentID)}, n.commentColumn: {eq(parentID)}}
	if err := n.api.doJSON(ctx, http.MethodDelete, n.commentPath(), query, nil, nil, nil); err != nil {
		return n.api.fail(ctx, err, "delete comment", string(n.commentType()), commentID)
	}
	return nil
}

// attachComments loads the attachments of comments in one request and, unless the caller
// collects them for a later batch, signs them.
func (n *nested[T, I, P, PT]) attachComments(ctx context.Context, comments []models.Comment, signing *[][]models.Attachment) error {
	if len(comments) == 0 {
		return nil
	}

	ids := make([]string, len(comments))
	for i, comment := range comments {
		ids[i] = comment.ID
	}
	found, err := n.attachments.selectFor(ctx, n.commentType(), ids)
	if err != nil {
		return err
	}

	grouped := storage.GroupAttachments(found)
	var groups [][]models.Attachment
	for i := range comments {
		comments[i].Attachments = storage.AttachmentsFor(grouped, comments[i].ID)
		groups = append(groups, comments[i].Attachments)
	}

	if signing != nil {
		*signing = append(*signing, groups...)
		return nil
	}
	return storage.SignAttachments(ctx, n.objects, n.api.logger, groups...)
}

func (n *nested[T, I, P, PT]) assembleOne(ctx context.Context, row *T) (*T, error) {
	rows := []T{*row}
	if err := n.assemble(ctx, rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// assemble fills comments and attachments for rows: comments and parent attachments are
// fetched concurrently, then comment attachments, then one signing call covers everything.
func (n *nested[T, I, P, PT]) assemble(ctx context.Context, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = PT(&rows[i]).GetID()
	}

	var (
		comments    []commentRow
		attachments []models.Attachment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		query := url.Values{
			"select":        {"*"},
			"order":         {"timestamp.desc"},
			n.commentColumn: {in(ids)},
		}
		if err := n.api.doJSON(gctx, http.MethodGet, n.commentPath(), query, nil, nil, &comments); err != nil {
			return n.api.fail(gctx, err, "list "+n.commentTable, n.entity, "")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		attachments, err = n.attachments.selectFor(gctx, n.entityType, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	byParent := make(map[string][]models.Comment)
	var all []models.Comment
	for _, row := range comments {
		all = append(all, row.Comment)
	}

	var signing [][]models.Attachment
	if err := n.attachComments(ctx, all, &signing); err != nil {
		return err
	}
	for i, row := range comments {
		byParent[row.parentID()] = append(byParent[row.parentID()], all[i])
	}

	grouped := storage.GroupAttachments(attachments)
	for i := range rows {
		parentAttachments, parentComments := PT(&rows[i]).Nested()
		*parentAttachments = storage.AttachmentsFor(grouped, ids[i])
		signing = append(signing, *parentAttachments)

		*parentComments = byParent[ids[i]]
		if *parentComments == nil {
			*parentComments = []models.Comment{}
		}
	}

	n.api.logger.WithContext(ctx).WithFields(map[string]any{
		"table":       n.name,
		"rows":        len(rows),
		"comments":    len(all),
		"attachments": len(attachments),
	}).Debug("Assembled nested rows")

	return storage.SignAttachments(ctx, n.objects, n.api.logger, signing...)
}
