package document

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func officialRequest() Request {
	return Request{
		Kind: KindOfficial,
		Meta: Metadata{
			ActivityName:  "迎新晚会",
			ActivityDate:  "2024年9月20日",
			WorkDate:      "9月20日",
			WorkTime:      WorkAfternoon,
			SignatureDate: "2024年9月18日",
		},
		Columns:      []string{"学院", "姓名"},
		Rows:         [][]string{{"经济与管理学院", "张三"}, {"法学院", "李四"}},
		Organization: "共青团温州理工学院委员会",
	}
}

// renderAndParse round-trips a form through the docx writer and reader and
// returns the text of each body paragraph and table.
func renderAndParse(t *testing.T, req Request) (paras []string, tables []*docx.Table) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, req))

	doc, err := docx.Parse(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			if s := v.String(); s != "" {
				paras = append(paras, s)
			}
		case *docx.Table:
			tables = append(tables, v)
		}
	}
	return paras, tables
}

func cellText(tbl *docx.Table, row, col int) string {
	return tbl.TableRows[row].TableCells[col].Paragraphs[0].String()
}

func TestRender_Official(t *testing.T) {
	paras, tables := renderAndParse(t, officialRequest())

	require.Len(t, paras, 5)
	assert.Equal(t, "公假单", paras[0])
	assert.Equal(t, Salutation, paras[1])
	assert.Equal(t, "兹定于2024年9月20日举办\"迎新晚会\"活动。以下同学因参与活动组织工作，将于9月20日 下午协助相关会务工作，无法参加该时间段课程。", paras[2])
	assert.Equal(t, "特此申请为以下同学办理 9月20日 下午 的公假手续，恳请贵学院予以批准，谢谢！", paras[3])
	assert.Equal(t, "共青团温州理工学院委员会\n2024年9月18日", paras[4])

	require.Len(t, tables, 1)
	tbl := tables[0]
	require.Len(t, tbl.TableRows, 3)
	assert.Equal(t, "学院", cellText(tbl, 0, 0))
	assert.Equal(t, "姓名", cellText(tbl, 0, 1))
	assert.Equal(t, "经济与管理学院", cellText(tbl, 1, 0))
	assert.Equal(t, "李四", cellText(tbl, 2, 1))
}

func TestRender_EveningIgnoresSchedule(t *testing.T) {
	req := officialRequest()
	req.Kind = KindEvening
	req.Meta.ActivityDate = ""
	req.Meta.WorkTime = ""

	paras, _ := renderAndParse(t, req)
	require.GreaterOrEqual(t, len(paras), 4)
	assert.Equal(t, "抵晚自习请假单", paras[0])
	assert.Equal(t, "以下同学因参与9月20日的\"迎新晚会\"活动，无法参加当晚晚自习。", paras[2])
	assert.Equal(t, "特此申请为以下同学办理晚自习请假手续，恳请贵学院予以批准，谢谢！", paras[3])
}

func TestRender_MorningAndShortRows(t *testing.T) {
	req := officialRequest()
	req.Kind = KindMorning
	req.Rows = [][]string{{"法学院"}}

	paras, tables := renderAndParse(t, req)
	assert.Equal(t, "抵早自习请假单", paras[0])
	assert.Contains(t, paras[2], "早自习")
	require.Len(t, tables, 1)
	assert.Len(t, tables[0].TableRows, 2)
	assert.Equal(t, "法学院", cellText(tables[0], 1, 0))
}

func TestRender_WithoutOrganization(t *testing.T) {
	req := officialRequest()
	req.Organization = "  "

	paras, _ := renderAndParse(t, req)
	assert.Equal(t, "2024年9月18日", paras[len(paras)-1])
}

func TestBuild_Errors(t *testing.T) {
	req := officialRequest()
	req.Columns = nil
	_, err := Build(req)
	assert.ErrorIs(t, err, ErrNoColumns)

	req = officialRequest()
	req.Meta.WorkTime = "晚上"
	req.Meta.ActivityName = " "
	_, err = Build(req)
	require.ErrorIs(t, err, ErrInvalidMetadata)
	assert.Contains(t, err.Error(), "activity name")
	assert.Contains(t, err.Error(), "work time")

	req = officialRequest()
	req.Kind = "weekly"
	_, err = Build(req)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"official":  KindOfficial,
		" Evening ": KindEvening,
		"公假单":       KindOfficial,
		"抵晚单":       KindEvening,
		"抵晚自习请假单":   KindEvening,
		"早自习":       KindMorning,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("病假")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []Kind{KindEvening, KindMorning, KindOfficial}, Kinds())
	for _, k := range Kinds() {
		assert.NotEmpty(t, k.Title())
		assert.NotEmpty(t, k.Label())
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 9, 18, 10, 0, 0, 0, time.Local)

	got := Filename(KindOfficial, Metadata{ActivityName: " 迎新晚会 "}, now)
	assert.Equal(t, "公假单_迎新晚会_20240918.docx", got)

	got = Filename(KindEvening, Metadata{ActivityName: "A/B: \"final\""}, now)
	assert.Equal(t, "抵晚单_A_B_ final_20240918.docx", got)
	assert.False(t, strings.ContainsAny(got, `/\:"`))

	assert.Equal(t, "抵早单_活动_20240918.docx", Filename(KindMorning, Metadata{}, now))
}
