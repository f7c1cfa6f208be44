package ats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/jobharvest/internal/jobs"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name   string
		source jobs.Source
		in     string
		want   string
	}{
		{
			name:   "workday job detail",
			source: jobs.SourceWorkday,
			in:     "https://acme.wd5.myworkdayjobs.com/External/job/NYC/Engineer_R123",
			want:   "https://acme.wd5.myworkdayjobs.com/External",
		},
		{
			name:   "workday login page",
			source: jobs.SourceWorkday,
			in:     "https://acme.wd5.myworkdayjobs.com/External/login",
			want:   "https://acme.wd5.myworkdayjobs.com/External",
		},
		{
			name:   "workday keeps locale prefix",
			source: jobs.SourceWorkday,
			in:     "https://acme.wd5.myworkdayjobs.com/en-US/Careers/job/R99",
			want:   "https://acme.wd5.myworkdayjobs.com/en-US/Careers",
		},
		{
			name:   "workday site named Jobs survives",
			source: jobs.SourceWorkday,
			in:     "https://acme.wd1.myworkdayjobs.com/Jobs",
			want:   "https://acme.wd1.myworkdayjobs.com/Jobs",
		},
		{
			name:   "workday site named Jobs with locale prefix survives",
			source: jobs.SourceWorkday,
			in:     "https://acme.wd1.myworkdayjobs.com/en-US/Jobs",
			want:   "https://acme.wd1.myworkdayjobs.com/en-US/Jobs",
		},
		{
			name:   "workday job detail under a Jobs site",
			source: jobs.SourceWorkday,
			in:     "https://acme.wd1.myworkdayjobs.com/Jobs/job/NYC/Engineer_R123",
			want:   "https://acme.wd1.myworkdayjobs.com/Jobs",
		},
		{
			name:   "greenhouse job detail",
			source: jobs.SourceGreenhouse,
			in:     "https://boards.greenhouse.io/acme/jobs/4012345?gh_src=abc",
			want:   "https://boards.greenhouse.io/acme",
		},
		{
			name:   "lever posting detail",
			source: jobs.SourceLever,
			in:     "https://jobs.lever.co/acme/3f2a9c-engineer",
			want:   "https://jobs.lever.co/acme",
		},
		{
			name:   "ashby posting detail",
			source: jobs.SourceAshby,
			in:     "https://jobs.ashbyhq.com/acme/12ab-34cd",
			want:   "https://jobs.ashbyhq.com/acme",
		},
		{
			name:   "unknown source trims trailing slash",
			source: jobs.SourceUnknown,
			in:     "https://example.com/careers/",
			want:   "https://example.com/careers",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeURL(tt.source, tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, NormalizeURL(tt.source, got), "normalization must be idempotent")
		})
	}
}

func TestCompanySlug(t *testing.T) {
	assert.Equal(t, "acme", CompanySlug(jobs.SourceWorkday, "https://acme.wd5.myworkdayjobs.com/External"))
	assert.Equal(t, "acme", CompanySlug(jobs.SourceGreenhouse, "https://boards.greenhouse.io/acme"))
	assert.Equal(t, "acme", CompanySlug(jobs.SourceLever, "https://jobs.lever.co/acme"))
	assert.Equal(t, "", CompanySlug(jobs.SourceGreenhouse, "https://boards.greenhouse.io"))
}
