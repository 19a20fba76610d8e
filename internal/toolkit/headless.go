package toolkit

// HeadlessProvider implements Provider for environments without a GUI
// toolkit, such as CI runners.
type HeadlessProvider struct {
	BaseProvider
}

// NewHeadlessProvider creates a new headless provider.
func NewHeadlessProvider() *HeadlessProvider {
	return &HeadlessProvider{
		BaseProvider: BaseProvider{
			id:   Headless,
			name: "Headless",
			// No probe module: there are no bindings to check.
		},
	}
}

// SystemPackages returns nothing; headless environments need no GUI
// host packages.
func (p *HeadlessProvider) SystemPackages(pm PackageManager) []string {
	return nil
}

// EnvVars returns no variables.
func (p *HeadlessProvider) EnvVars(h Host) (Vars, error) {
	return Vars{}, nil
}

func init() {
	Register(NewHeadlessProvider())
}
