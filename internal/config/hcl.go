package config

// The HCL schema mirrors Config with optional pointer fields so that only
// attributes present in the file override defaults.

type hclDocument struct {
	Logging *hclLogging `hcl:"logging,block"`
	Ingest  *hclIngest  `hcl:"ingest,block"`
	Fonts   *hclFonts   `hcl:"fonts,block"`
	Atlas   *hclAtlas   `hcl:"atlas,block"`
	Output  *hclOutput  `hcl:"output,block"`
}

type hclLogging struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type hclIngest struct {
	Ignore *[]string `hcl:"ignore,optional"`
}

type hclFonts struct {
	PageSize *int `hcl:"page_size,optional"`
	Padding  *int `hcl:"padding,optional"`
}

type hclAtlas struct {
	MaxPageSize *int `hcl:"max_page_size,optional"`
	Padding     *int `hcl:"padding,optional"`
}

type hclOutput struct {
	IndexDB    *string `hcl:"index_db,optional"`
	GoIndex    *string `hcl:"go_index,optional"`
	GoPackage  *string `hcl:"go_package,optional"`
	StagingDir *string `hcl:"staging_dir,optional"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (d *hclDocument) apply(cfg *Config) {
	if l := d.Logging; l != nil {
		set(&cfg.Logging.Level, l.Level)
		set(&cfg.Logging.Format, l.Format)
	}
	if i := d.Ingest; i != nil {
		set(&cfg.Ingest.Ignore, i.Ignore)
	}
	if f := d.Fonts; f != nil {
		set(&cfg.Fonts.PageSize, f.PageSize)
		set(&cfg.Fonts.Padding, f.Padding)
	}
	if a := d.Atlas; a != nil {
		set(&cfg.Atlas.MaxPageSize, a.MaxPageSize)
		set(&cfg.Atlas.Padding, a.Padding)
	}
	if o := d.Output; o != nil {
		set(&cfg.Output.IndexDB, o.IndexDB)
		set(&cfg.Output.GoIndex, o.GoIndex)
		set(&cfg.Output.GoPackage, o.GoPackage)
		set(&cfg.Output.StagingDir, o.StagingDir)
	}
}
