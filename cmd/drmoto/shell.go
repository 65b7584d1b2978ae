// cmd/drmoto/shell.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	uc "drmoto/internal/application/usecase"
	"drmoto/internal/domain/asset"
	"drmoto/internal/domain/capture"
	userdom "drmoto/internal/domain/user"
	"drmoto/internal/platform/di"
)

const dayLayout = "2006-01-02"

var (
	errUsage = errors.New("usage")
	errQuit  = errors.New("quit")
)

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

// shell is the interactive stand-in for the app screens. It only calls
// manager operations and prints their results.
type shell struct {
	lines <-chan string
	out   io.Writer
	c     *di.Container

	gallery *uc.AssetManager
	cmds    map[string]command
	order   []string
}

func newShell(lines <-chan string, out io.Writer) *shell {
	s := &shell{lines: lines, out: out}
	s.register()
	return s
}

func (s *shell) bind(c *di.Container) { s.c = c }

func (s *shell) add(name, usage string, fn func(ctx context.Context, args []string) error) {
	s.cmds[name] = command{usage: usage, run: fn}
	s.order = append(s.order, name)
}

func (s *shell) register() {
	s.cmds = map[string]command{}

	// session
	s.add("register", `register <email> <password> "<display name>"`, s.cmdRegister)
	s.add("login", "login <email> <password>", s.cmdLogin)
	s.add("logout", "logout", s.cmdLogout)
	s.add("reset", "reset <email>", s.cmdReset)
	s.add("whoami", "whoami", s.cmdWhoami)
	s.add("profile", `profile "<display name>" [theme] [camera quality]`, s.cmdProfile)

	// gallery
	s.add("capture", "capture", s.cmdCapture(capture.SourceCamera))
	s.add("select", "select", s.cmdCapture(capture.SourceLibrary))
	s.add("photos", "photos [date|title|size] [asc|desc]", s.cmdPhotos)
	s.add("photos-range", "photos-range <YYYY-MM-DD> <YYYY-MM-DD>", s.cmdPhotosRange)
	s.add("stats", "stats", s.cmdStats)
	s.add("edit", `edit <id> "<title>" ["<description>"]`, s.cmdEdit)
	s.add("delete", "delete <id>", s.cmdDelete)
	s.add("reload", "reload", s.cmdReload)

	// shop
	s.add("products", "products [category id]", s.cmdProducts)
	s.add("product", "product <id>", s.cmdProduct)
	s.add("search", "search <query>", s.cmdSearch)
	s.add("categories", "categories", s.cmdCategories)
	s.add("add", "add <product id>", s.cmdAdd)
	s.add("qty", "qty <product id> <quantity>", s.cmdQty)
	s.add("remove", "remove <product id>", s.cmdRemove)
	s.add("cart", "cart", s.cmdCart)
	s.add("clear", "clear", s.cmdClear)
	s.add("checkout", "checkout", s.cmdCheckout)

	s.add("help", "help", s.cmdHelp)
	s.add("exit", "exit", func(context.Context, []string) error { return errQuit })
}

func (s *shell) run(ctx context.Context) {
	s.printf("drmoto ready. Type 'help' for commands.\n")
	for {
		s.printf("> ")
		line, ok := s.next(ctx)
		if !ok {
			s.printf("\n")
			return
		}
		if err := s.exec(ctx, line); errors.Is(err, errQuit) {
			return
		}
	}
}

func (s *shell) next(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-s.lines:
		return line, ok
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	args, err := splitArgs(line)
	if err != nil {
		s.printf("%v\n", err)
		return nil
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := s.cmds[strings.ToLower(args[0])]
	if !ok {
		s.printf("unknown command %q (try 'help')\n", args[0])
		return nil
	}
	err = cmd.run(ctx, args[1:])
	switch {
	case err == nil:
	case errors.Is(err, errQuit):
		return err
	case errors.Is(err, errUsage):
		s.printf("usage: %s\n", cmd.usage)
	default:
		s.printf("%s\n", uc.Message(err))
	}
	return nil
}

// pick serves the library capture source: an empty line cancels.
func (s *shell) pick(ctx context.Context) (string, error) {
	s.printf("image path (empty to cancel): ")
	line, ok := s.next(ctx)
	if !ok {
		return "", ctx.Err()
	}
	return strings.TrimSpace(line), nil
}

func (s *shell) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

// ============================================================
// Session
// ============================================================

func (s *shell) cmdRegister(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	name := strings.Join(args[2:], " ")
	if err := uc.ValidateRegistration(args[0], args[1], name); err != nil {
		return err
	}
	if err := s.c.Session.Register(ctx, args[0], args[1], name); err != nil {
		return err
	}
	s.printf("account created\n")
	return nil
}

func (s *shell) cmdLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	if err := uc.ValidateCredentials(args[0], args[1]); err != nil {
		return err
	}
	if err := s.c.Session.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	if u := s.c.Session.CurrentUser(); u != nil {
		s.printf("signed in as %s\n", displayName(u))
	}
	return nil
}

func (s *shell) cmdLogout(ctx context.Context, _ []string) error {
	s.gallery = nil
	if err := s.c.Session.Logout(ctx); err != nil {
		return err
	}
	s.printf("signed out\n")
	return nil
}

func (s *shell) cmdReset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := uc.ValidateEmail(args[0]); err != nil {
		return err
	}
	if err := s.c.Session.ResetPassword(ctx, args[0]); err != nil {
		return err
	}
	s.printf("password reset email sent\n")
	return nil
}

func (s *shell) cmdWhoami(context.Context, []string) error {
	u := s.c.Session.CurrentUser()
	if u == nil {
		return uc.ErrNotAuthenticated
	}
	s.printf("%s <%s> id=%s since %s\n", displayName(u), u.Email, u.ID, u.CreatedAt.Local().Format(dayLayout))
	if p := u.Preferences; p != nil {
		s.printf("theme=%s cameraQuality=%d autoUpload=%t notifications=%t\n",
			p.Theme, p.CameraQuality, p.AutoUpload, p.Notifications)
	}
	return nil
}

func (s *shell) cmdProfile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	name := args[0]
	in := userdom.UpdateUserInput{DisplayName: &name}
	if len(args) > 1 {
		prefs := userdom.DefaultPreferences()
		if u := s.c.Session.CurrentUser(); u != nil && u.Preferences != nil {
			prefs = *u.Preferences
		}
		prefs.Theme = userdom.Theme(args[1])
		if len(args) > 2 {
			q, err := strconv.Atoi(args[2])
			if err != nil {
				return errUsage
			}
			prefs.CameraQuality = q
		}
		in.Preferences = &prefs
	}
	if err := s.c.Session.UpdateProfile(ctx, in); err != nil {
		return err
	}
	s.printf("profile updated\n")
	return nil
}

// ============================================================
// Gallery
// ============================================================

// galleryFor returns the manager of the signed-in user, loading it on first use.
func (s *shell) galleryFor(ctx context.Context) (*uc.AssetManager, error) {
	u := s.c.Session.CurrentUser()
	if u == nil {
		s.gallery = nil
		return nil, uc.ErrNotAuthenticated
	}
	if s.gallery != nil && s.gallery.Owner() == u.ID {
		return s.gallery, nil
	}
	g, err := s.c.NewGallery(u)
	if err != nil {
		return nil, err
	}
	s.gallery = g
	if err := s.load(ctx, g, u.ID); err != nil {
		return g, err
	}
	return g, nil
}

func (s *shell) load(ctx context.Context, g *uc.AssetManager, uid string) error {
	src, err := g.LoadAll(ctx, uid)
	if err != nil {
		return err
	}
	if src == uc.SourceLocal {
		s.printf("(offline: showing saved photos)\n")
	}
	return nil
}

func (s *shell) cmdCapture(src capture.Source) func(context.Context, []string) error {
	return func(ctx context.Context, _ []string) error {
		g, err := s.galleryFor(ctx)
		if err != nil {
			return err
		}
		rec, err := g.Capture(ctx, src)
		if err != nil {
			return err
		}
		if rec == nil {
			s.printf("cancelled\n")
			return nil
		}
		s.printf("saved %s %q\n", rec.ID, rec.Title)
		return nil
	}
}

func (s *shell) cmdPhotos(ctx context.Context, args []string) error {
	g, err := s.galleryFor(ctx)
	if err != nil {
		return err
	}
	items := g.Assets()
	if len(args) > 0 {
		order := asset.OrderDesc
		if len(args) > 1 {
			order = asset.ParseSortOrder(args[1])
		}
		items = g.Sorted(asset.ParseSortBy(args[0]), order)
	}
	s.printAssets(items)
	return nil
}

func (s *shell) cmdPhotosRange(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	start, end, err := parseRange(args[0], args[1], time.Local)
	if err != nil {
		return errUsage
	}
	g, err := s.galleryFor(ctx)
	if err != nil {
		return err
	}
	s.printAssets(g.InDateRange(start, end))
	return nil
}

func (s *shell) cmdStats(ctx context.Context, _ []string) error {
	g, err := s.galleryFor(ctx)
	if err != nil {
		return err
	}
	st := g.Stats()
	s.printf("photos=%d totalSize=%d averageSize=%d\n", st.Total, st.TotalSize, st.AverageSize)
	if st.Oldest != nil && st.Newest != nil {
		s.printf("oldest=%s newest=%s\n", st.Oldest.Local().Format(time.DateTime), st.Newest.Local().Format(time.DateTime))
	}
	return nil
}

func (s *shell) cmdEdit(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	if err := uc.ValidateTitle(args[1]); err != nil {
		return err
	}
	desc := ""
	if len(args) == 3 {
		desc = args[2]
	}
	g, err := s.galleryFor(ctx)
	if err != nil {
		return err
	}
	if err := g.UpdateInfo(ctx, args[0], args[1], desc); err != nil {
		return err
	}
	s.printf("updated\n")
	return nil
}

func (s *shell) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	g, err := s.galleryFor(ctx)
	if err != nil {
		return err
	}
	rec, ok := g.Get(args[0])
	if !ok {
		s.printf("no photo %s\n", args[0])
		return nil
	}
	if err := g.Delete(ctx, rec); err != nil {
		return err
	}
	s.printf("deleted\n")
	return nil
}

func (s *shell) cmdReload(ctx context.Context, _ []string) error {
	g, err := s.galleryFor(ctx)
	if err != nil {
		return err
	}
	if err := s.load(ctx, g, g.Owner()); err != nil {
		return err
	}
	s.printf("%d photos\n", g.Count())
	return nil
}

func (s *shell) printAssets(items []asset.Asset) {
	if len(items) == 0 {
		s.printf("no photos\n")
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tCREATED\tSIZE")
	for _, a := range items {
		size := "-"
		if a.Metadata.Size != nil {
			size = strconv.FormatInt(*a.Metadata.Size, 10)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.Title, a.CreatedAt.Local().Format(time.DateTime), size)
	}
	_ = tw.Flush()
}

// ============================================================
// Shop
// ============================================================

func (s *shell) cmdProducts(ctx context.Context, args []string) error {
	var cat int64
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			return errUsage
		}
		cat = id
	}
	list, err := s.c.Catalog.Products(ctx, cat)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, p := range list {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2))
	}
	return tw.Flush()
}

func (s *shell) cmdProduct(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return errUsage
	}
	p, err := s.c.Catalog.Product(ctx, id)
	if err != nil {
		return err
	}
	s.printf("%d %s %s\n%s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Description)
	return nil
}

func (s *shell) cmdSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	list, err := s.c.Catalog.Search(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	for _, p := range list {
		s.printf("%d %s %s\n", p.ID, p.Name, p.Price.StringFixed(2))
	}
	return nil
}

func (s *shell) cmdCategories(ctx context.Context, _ []string) error {
	cats, err := s.c.Catalog.Categories(ctx)
	if err != nil {
		return err
	}
	for _, c := range cats {
		s.printf("%d %s\n", c.ID, c.Name)
	}
	return nil
}

func (s *shell) cmdAdd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return errUsage
	}
	p, err := s.c.Catalog.AddToCart(ctx, id)
	if err != nil {
		return err
	}
	s.printf("added %s (%d in cart)\n", p.Name, s.c.Cart.ItemCount())
	return nil
}

func (s *shell) cmdQty(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return errUsage
	}
	q, err := strconv.Atoi(args[1])
	if err != nil {
		return errUsage
	}
	return s.c.Cart.UpdateQuantity(ctx, id, q)
}

func (s *shell) cmdRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return errUsage
	}
	return s.c.Cart.Remove(ctx, id)
}

func (s *shell) cmdCart(context.Context, []string) error {
	items := s.c.Cart.Items()
	if len(items) == 0 {
		s.printf("cart is empty\n")
		return nil
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, it := range items {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			it.ProductID, it.Name, it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2))
	}
	_, _ = fmt.Fprintf(tw, "\t\t%d\t\t%s\n", s.c.Cart.ItemCount(), s.c.Cart.Total().StringFixed(2))
	return tw.Flush()
}

func (s *shell) cmdClear(ctx context.Context, _ []string) error {
	return s.c.Cart.Clear(ctx)
}

func (s *shell) cmdCheckout(ctx context.Context, _ []string) error {
	rc, err := s.c.Checkout.Checkout(ctx)
	if err != nil {
		return err
	}
	s.printf("order %s %s\n", rc.OrderID, rc.Status)
	return nil
}

func (s *shell) cmdHelp(context.Context, []string) error {
	for _, name := range s.order {
		s.printf("  %s\n", s.cmds[name].usage)
	}
	return nil
}

// ============================================================
// Parsing
// ============================================================

func displayName(u *userdom.User) string {
	if strings.TrimSpace(u.DisplayName) != "" {
		return u.DisplayName
	}
	return u.Email
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errUsage
	}
	return id, nil
}

// parseRange turns two calendar days into an inclusive [start of from, end of to] range.
func parseRange(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(dayLayout, from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	day, err := time.ParseInLocation(dayLayout, to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end before start")
	}
	return start, end, nil
}

// splitArgs splits on whitespace; double quotes group words.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		hasArg  bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasArg = true
		case !inQuote && (r == ' ' || r == '\t'):
			if hasArg {
				args = append(args, cur.String())
				cur.Reset()
				hasArg = false
			}
		default:
			cur.WriteRune(r)
			hasArg = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if hasArg {
		args = append(args, cur.String())
	}
	return args, nil
}
