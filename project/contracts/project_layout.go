package contracts

// IProjectLayout describes a project directory: its modules and the
// conventional source, test and documentation roots. All paths except
// ProjectDir are relative to ProjectDir and use forward slashes.
type IProjectLayout interface {
	ProjectDir() string
	Modules() []string
	Sources() []string
	Tests() []string
	Documents() []string
	ProjectID() string
	ProjectName() string
	LayoutType() string
}
