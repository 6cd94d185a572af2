package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/pvidal/battlegrid/internal/model"
	"github.com/pvidal/battlegrid/internal/protocol"
)

// Display renders game output with ANSI colors.
type Display struct {
	titleColor *color.Color
	infoColor  *color.Color
	warnColor  *color.Color
	errColor   *color.Color
	hitColor   *color.Color
	missColor  *color.Color
	shipColor  *color.Color
	winColor   *color.Color
	loseColor  *color.Color
}

// NewDisplay creates a Display.
func NewDisplay() *Display {
	return &Display{
		titleColor: color.New(color.FgCyan, color.Bold),
		infoColor:  color.New(color.FgWhite),
		warnColor:  color.New(color.FgYellow),
		errColor:   color.New(color.FgRed),
		hitColor:   color.New(color.FgRed, color.Bold),
		missColor:  color.New(color.FgBlue),
		shipColor:  color.New(color.FgGreen),
		winColor:   color.New(color.FgGreen, color.Bold),
		loseColor:  color.New(color.FgRed, color.Bold),
	}
}

// Banner prints the startup banner.
func (d *Display) Banner() {
	d.titleColor.Println("=== battlegrid ===")
	d.infoColor.Println("commands: signup, login, logout, list, look, cancel, challenge <user>, wait, quit")
}

func (d *Display) Title(format string, args ...any) {
	d.titleColor.Printf(format+"\n", args...)
}

func (d *Display) Info(format string, args ...any) {
	d.infoColor.Printf(format+"\n", args...)
}

func (d *Display) Warn(format string, args ...any) {
	d.warnColor.Printf(format+"\n", args...)
}

func (d *Display) Error(err error) {
	d.errColor.Printf("error: %s\n", err)
}

// Users prints the list-users reply.
func (d *Display) Users(users []protocol.UserEntry) {
	if len(users) == 0 {
		d.infoColor.Println("no other players online")
		return
	}
	d.titleColor.Printf("players online (%d):\n", len(users))
	for _, u := range users {
		if u.LookingForGame {
			d.shipColor.Printf("  %s (looking for game)\n", u.Username)
		} else {
			d.infoColor.Printf("  %s\n", u.Username)
		}
	}
}

// Shot announces a shot result.
func (d *Display) Shot(target model.Coordinate, hit bool, mine bool) {
	who := "opponent fired at"
	if mine {
		who = "you fired at"
	}
	if hit {
		d.hitColor.Printf("%s %s: HIT\n", who, target)
	} else {
		d.missColor.Printf("%s %s: miss\n", who, target)
	}
}

// Win and Lose print the match outcome.
func (d *Display) Win() {
	d.winColor.Println("all enemy ships destroyed, you win!")
}

func (d *Display) Lose() {
	d.loseColor.Println("your fleet is destroyed, you lose")
}

// Grids renders the player's own board and the tracking board side by side.
func (d *Display) Grids(own, tracking *model.Grid) {
	d.titleColor.Println("    your board        your shots")
	fmt.Println("     A  B  C            A  B  C")
	for y := int8(0); y < model.GridHeight; y++ {
		fmt.Printf("  %d ", y+1)
		for x := int8(0); x < model.GridWidth; x++ {
			d.cell(own.At(model.Coordinate{X: x, Y: y}), true)
		}
		fmt.Printf("       %d ", y+1)
		for x := int8(0); x < model.GridWidth; x++ {
			d.cell(tracking.At(model.Coordinate{X: x, Y: y}), false)
		}
		fmt.Println()
	}
}

// cell prints one grid field. Ships are only revealed on the player's own
// board; on the tracking board an unshot field renders as unknown.
func (d *Display) cell(c model.Cell, own bool) {
	switch c {
	case model.CellShip:
		if own {
			d.shipColor.Print(" # ")
		} else {
			fmt.Print(" . ")
		}
	case model.CellHit:
		d.hitColor.Print(" X ")
	case model.CellMiss:
		d.missColor.Print(" o ")
	default:
		fmt.Print(" . ")
	}
}
