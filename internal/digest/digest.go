// Package digest partitions a page of job records into bounded batches and
// renders each batch into a channel-ready message body.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// TimestampLayout is the header timestamp format.
const TimestampLayout = "2006/01/02 15:04:05"

// Layout selects which optional record fields a source's digests show.
type Layout struct {
	Location bool
	URL      bool
}

// Digest is one batch of up to batchSize records from a single page.
type Digest struct {
	Page        int
	Offset      int // index of Records[0] within the page's result set
	Records     []model.JobRecord
	GeneratedAt time.Time
}

// Batch splits records into consecutive chunks of batchSize. Chunk i covers
// records[i*batchSize : min((i+1)*batchSize, len(records))], so concatenating
// the chunks reproduces records exactly. A non-positive batchSize is treated
// as 1.
func Batch(page int, records []model.JobRecord, batchSize int, generatedAt time.Time) []Digest {
	if batchSize <= 0 {
		batchSize = 1
	}
	digests := make([]Digest, 0, (len(records)+batchSize-1)/batchSize)
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		digests = append(digests, Digest{
			Page:        page,
			Offset:      start,
			Records:     records[start:end:end],
			GeneratedAt: generatedAt,
		})
	}
	return digests
}

// Renderer turns digests into message bodies for one source.
type Renderer struct {
	Label  string
	Layout Layout
}

// Render formats d as a header followed by one block per record. The output
// depends only on d and the renderer's settings.
func (r Renderer) Render(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 第 %d 頁職缺資訊", d.Page)
	if r.Label != "" {
		fmt.Fprintf(&b, " (%s)", r.Label)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "⏰ 更新時間：%s\n\n", d.GeneratedAt.Format(TimestampLayout))

	for i, job := range d.Records {
		fmt.Fprintf(&b, "【職缺 %d】\n", d.Offset+i+1)
		fmt.Fprintf(&b, "📌 職位：%s\n", job.Title)
		fmt.Fprintf(&b, "🏢 公司：%s\n", job.Company)
		fmt.Fprintf(&b, "💰 薪資：%s\n", job.Salary)
		if r.Layout.Location {
			fmt.Fprintf(&b, "📍 地點：%s\n", job.Location)
		}
		if r.Layout.URL {
			fmt.Fprintf(&b, "🔗 職缺連結：%s\n", job.URL)
		}
		b.WriteString("\n")
	}
	return b.String()
}
