package postgres

import (
	"context"

	"github.com/huandu/go-sqlbuilder"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// commentRow is a comment read from either comment table together with its parent id.
type commentRow struct {
	models.Comment
	ParentID string `db:"parent_id"`
}

// nested is a parent table whose comments live in a second table and whose attachments live in
// the attachments table. Reads assemble the full shape with a fixed number of queries.
type nested[T any, I models.Input[T], P any, PT models.NestedPtr[T]] struct {
	*table[T, I, P, PT]
	attachments   *attachments
	entityType    models.EntityType
	commentTable  string
	commentColumn string
}

func newNested[T any, I models.Input[T], P any, PT models.NestedPtr[T]](t *table[T, I, P, PT], files *attachments, entityType models.EntityType, commentTable, commentColumn string) *nested[T, I, P, PT] {
	return &nested[T, I, P, PT]{
		table:         t,
		attachments:   files,
		entityType:    entityType,
		commentTable:  commentTable,
		commentColumn: commentColumn,
	}
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

func (n *nested[T, I, P, PT]) selectComments(ctx context.Context, q querier, lock bool, where func(sb *sqlbuilder.SelectBuilder) []string) ([]commentRow, error) {
	sb := database.NewSelectBuilder()
	sb.Select("id", "text", "author", `"timestamp"`, sb.As(n.commentColumn, "parent_id")).
		From(n.commentTable).
		Where(where(sb)...).
		OrderBy(`"timestamp" DESC`)
	if lock {
		sb.ForUpdate()
	}

	query, args := sb.Build()
	rows := []commentRow{}
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func commentsOf(rows []commentRow) []models.Comment {
	out := make([]models.Comment, len(rows))
	for i, row := range rows {
		out[i] = row.Comment
	}
	return out
}

func (n *nested[T, I, P, PT]) ListComments(ctx context.Context, parentID string) (listed []models.Comment, err error) {
	ctx, end := n.span(ctx, "ListComments")
	defer func() { end(err) }()

	rows, err := n.selectComments(ctx, n.db, false, func(sb *sqlbuilder.SelectBuilder) []string {
		return []string{sb.Equal(n.commentColumn, parentID)}
	})
	if err != nil {
		return nil, n.fail(ctx, err, "list "+n.commentTable, n.entity, parentID)
	}

	listed = commentsOf(rows)
	if err := n.attachComments(ctx, listed, nil); err != nil {
		return nil, err
	}
	return listed, nil
}

func (n *nested[T, I, P, PT]) AddComment(ctx context.Context, parentID string, input models.CommentInput) (added *models.Comment, err error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}

	ctx, end := n.span(ctx, "AddComment")
	defer func() { end(err) }()

	comment := input.Entity(storage.NewID(), models.Now())
	ib := database.NewInsertBuilder()
	ib.InsertInto(n.commentTable).
		Cols("id", "text", "author", `"timestamp"`, n.commentColumn).
		Values(comment.ID, comment.Text, comment.Author, comment.Timestamp, parentID)

	query, args := ib.Build()
	if _, err = n.db.ExecContext(ctx, query, args...); err != nil {
		return nil, n.fail(ctx, err, "add comment", n.entity, parentID)
	}

	n.logger.WithContext(ctx).WithFields(map[string]any{
		"table":     n.commentTable,
		"parent_id": parentID,
		"id":        comment.ID,
	}).Debug("Added comment")
	return &comment, nil
}

func (n *nested[T, I, P, PT]) UpdateComment(ctx context.Context, parentID, commentID string, patch models.CommentPatch) (updated *models.Comment, err error) {
	if err := models.Validate(patch); err != nil {
		return nil, err
	}

	ctx, end := n.span(ctx, "UpdateComment")
	defer func() { end(err) }()

	scoped := func(sb *sqlbuilder.SelectBuilder) []string {
		return []string{sb.Equal("id", commentID), sb.Equal(n.commentColumn, parentID)}
	}

	err = database.WithTx(ctx, n.db, func(ctx context.Context, tx database.Tx) error {
		rows, err := n.selectComments(ctx, tx, true, scoped)
		if err != nil {
			return n.fail(ctx, err, "get comment", string(n.commentType()), commentID)
		}
		if len(rows) == 0 {
			return storage.NotFound(string(n.commentType()), commentID)
		}

		comment := rows[0].Comment
		if err := models.ApplyPatch(&comment, patch); err != nil {
			return err
		}

		ub := database.NewUpdateBuilder()
		ub.Update(n.commentTable).
			Set(ub.Assign("text", comment.Text), ub.Assign("author", comment.Author)).
			Where(ub.Equal("id", commentID), ub.Equal(n.commentColumn, parentID))
		query, args := ub.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return n.fail(ctx, err, "update comment", string(n.commentType()), commentID)
		}

		updated = &comment
		return nil
	})
	if err != nil {
		return nil, err
	}

	signed := []models.Comment{*updated}
	if err := n.attachComments(ctx, signed, nil); err != nil {
		return nil, err
	}
	return &signed[0], nil
}

func (n *nested[T, I, P, PT]) DeleteComment(ctx context.Context, parentID, commentID string) (err error) {
	ctx, end := n.span(ctx, "DeleteComment")
	defer func() { end(err) }()

	del := database.NewDeleteBuilder()
	del.DeleteFrom(n.commentTable).Where(del.Equal("id", commentID), del.Equal(n.commentColumn, parentID))
	query, args := del.Build()
	if _, err = n.db.ExecContext(ctx, query, args...); err != nil {
		return n.fail(ctx, err, "delete comment", string(n.commentType()), commentID)
	}
	return nil
}

// attachComments loads the attachments of comments in one query and, unless the caller
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
	groups := make([][]models.Attachment, len(comments))
	for i := range comments {
		comments[i].Attachments = storage.AttachmentsFor(grouped, comments[i].ID)
		groups[i] = comments[i].Attachments
	}

	if signing != nil {
		*signing = append(*signing, groups...)
		return nil
	}
	return storage.SignAttachments(ctx, n.attachments.objects, n.logger, groups...)
}

func (n *nested[T, I, P, PT]) assembleOne(ctx context.Context, row *T) (*T, error) {
	rows := []T{*row}
	if err := n.assemble(ctx, rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// assemble fills comments and attachments for rows: comments and parent attachments are
// queried concurrently, then comment attachments, then one signing call covers everything.
func (n *nested[T, I, P, PT]) assemble(ctx context.Context, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = PT(&rows[i]).GetID()
	}

	var (
		commentRows []commentRow
		attachments []models.Attachment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		commentRows, err = n.selectComments(gctx, n.db, false, func(sb *sqlbuilder.SelectBuilder) []string {
			return []string{sb.In(n.commentColumn, database.Args(ids)...)}
		})
		if err != nil {
			return n.fail(gctx, err, "list "+n.commentTable, n.entity, "")
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

	all := commentsOf(commentRows)
	var signing [][]models.Attachment
	if err := n.attachComments(ctx, all, &signing); err != nil {
		return err
	}

	byParent := make(map[string][]models.Comment)
	for i, row := range commentRows {
		byParent[row.ParentID] = append(byParent[row.ParentID], all[i])
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

	n.logger.WithContext(ctx).WithFields(map[string]any{
		"table":       n.name,
		"rows":        len(rows),
		"comments":    len(all),
		"attachments": len(attachments),
	}).Debug("Assembled nested rows")

	return storage.SignAttachments(ctx, n.attachments.objects, n.logger, signing...)
}
