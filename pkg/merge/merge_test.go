package merge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/adrianliechti/docscan/pkg/job"

	"github.com/stretchr/testify/require"
)

func testJob(mode job.Mode, labels ...string) *job.Job {
	j := &job.Job{
		Name: "test",
		Mode: mode,
	}

	for i, label := range labels {
		j.Pages = append(j.Pages, job.NewPage(i, label, fmt.Sprintf("page-%d.png", i+1), "image/png", nil))
	}

	return j
}

func success(index int, text string) job.Result {
	return job.Result{Index: index, Status: job.StatusSuccess, Text: text}
}

func failure(index int, reason string) job.Result {
	return job.Result{Index: index, Status: job.StatusFailed, Error: reason}
}

func TestMergePDFWithFailedPage(t *testing.T) {
	j := testJob(job.ModePDF, "Page 1", "Page 2", "Page 3", "Page 4", "Page 5")

	results := []job.Result{
		success(0, "Page one text."),
		success(1, "Page two text."),
		failure(2, "request timed out"),
		success(3, "Page four text."),
		success(4, "Page five text."),
	}

	doc, err := New().Merge(j, results)
	require.NoError(t, err)

	require.Equal(t, "Page one text.\n\nPage two text.\n\n"+
		"> [!WARNING] Page 3 could not be recognized: request timed out\n\n"+
		"Page four text.\n\nPage five text.", doc.Text)

	require.Equal(t, 5, doc.Pages)
	require.Equal(t, []int{2}, doc.Missing)
	require.False(t, doc.Complete())
}

func TestMergePDFStrict(t *testing.T) {
	j := testJob(job.ModePDF, "Page 1", "Page 2", "Page 3", "Page 4", "Page 5")

	results := []job.Result{
		success(0, "one"),
		success(1, "two"),
		failure(2, "boom"),
		success(3, "four"),
		success(4, "five"),
	}

	_, err := New(WithStrict(true)).Merge(j, results)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrGap))

	var gap *GapError
	require.ErrorAs(t, err, &gap)
	require.Equal(t, []int{2}, gap.Pages)
	require.Equal(t, "incomplete page set: pages 3 not recognized", err.Error())
}

func TestMergePDFCJKContinuation(t *testing.T) {
	j := testJob(job.ModePDF, "Page 1", "Page 2")

	doc, err := New().Merge(j, []job.Result{
		success(0, "这是第一页的内容，"),
		success(1, "继续第二页。"),
	})

	require.NoError(t, err)
	require.Equal(t, "这是第一页的内容，继续第二页。", doc.Text)
	require.True(t, doc.Complete())
}

func TestMergePDFBoundaries(t *testing.T) {
	j := testJob(job.ModePDF, "Page 1", "Page 2", "Page 3", "Page 4")

	doc, err := New().Merge(j, []job.Result{
		success(0, "# Report\n\nThe first sentence ends."),
		success(1, "A new paragraph that contin-"),
		success(2, "ues on the next page with $15\\mathrm{g}$ of"),
		success(3, "salt."),
	})

	require.NoError(t, err)
	require.Equal(t, "# Report\n\nThe first sentence ends.\n\nA new paragraph that continues on the next page with 15g of salt.", doc.Text)
}

func TestMergePDFEmptyPage(t *testing.T) {
	j := testJob(job.ModePDF, "Page 1", "Page 2", "Page 3")

	doc, err := New().Merge(j, []job.Result{
		success(0, "First."),
		success(1, "---"),
		success(2, "Third."),
	})

	require.NoError(t, err)
	require.Equal(t, "First.\n\nThird.", doc.Text)
	require.Equal(t, []int{1}, doc.Empty)
	require.True(t, doc.Complete())
}

func TestMergeFolderEmptyPage(t *testing.T) {
	j := testJob(job.ModeFolder, "a", "b", "c")

	doc, err := New().Merge(j, []job.Result{
		success(0, "Alpha"),
		success(1, "***"),
		failure(2, "timeout"),
	})

	require.NoError(t, err)
	require.Equal(t, "### a\n\nAlpha\n\n---\n\n"+
		"### c\n\n> [!WARNING] Page 3 could not be recognized: timeout", doc.Text)
	require.Equal(t, []int{1}, doc.Empty)
	require.Equal(t, []int{2}, doc.Missing)
}

func TestMergeFolder(t *testing.T) {
	j := testJob(job.ModeFolder, "a", "b")

	doc, err := New().Merge(j, []job.Result{
		success(1, "Beta"),
		success(0, "Alpha"),
	})

	require.NoError(t, err)
	require.Equal(t, "### a\n\nAlpha\n\n---\n\n### b\n\nBeta", doc.Text)
}

func TestMergeFolderPending(t *testing.T) {
	j := testJob(job.ModeFolder, "a", "b", "c")

	doc, err := New().Merge(j, []job.Result{
		success(0, "Alpha"),
		success(2, "Gamma"),
	})

	require.NoError(t, err)
	require.Equal(t, "### a\n\nAlpha\n\n---\n\n"+
		"### b\n\n> [!WARNING] Page 2 could not be recognized: not processed\n\n---\n\n"+
		"### c\n\nGamma", doc.Text)
	require.Equal(t, []int{1}, doc.Missing)
}

func TestMergeSingleImage(t *testing.T) {
	j := testJob(job.ModeSingleImage, "receipt")

	doc, err := New().Merge(j, []job.Result{
		success(0, "\r\nTotal $15\\%$ off\r\n"),
	})

	require.NoError(t, err)
	require.Equal(t, "Total 15% off", doc.Text)
}

func TestMergeNoContent(t *testing.T) {
	j := testJob(job.ModePDF, "Page 1", "Page 2")

	_, err := New().Merge(j, []job.Result{
		failure(0, "boom"),
		failure(1, "boom"),
	})

	require.ErrorIs(t, err, ErrNoContent)
}

func TestMergeWithoutRules(t *testing.T) {
	j := testJob(job.ModeSingleImage, "receipt")

	doc, err := New(WithRules()).Merge(j, []job.Result{
		success(0, "$15\\mathrm{g}$"),
	})

	require.NoError(t, err)
	require.Equal(t, "$15\\mathrm{g}$", doc.Text)
}

func TestPlaceholderReason(t *testing.T) {
	require.Equal(t, "> [!WARNING] Page 4 could not be recognized: status 500",
		placeholder(3, failure(3, "status 500\ninternal detail")))

	require.Equal(t, "> [!WARNING] Page 1 could not be recognized: recognition failed",
		placeholder(0, failure(0, "")))
}
