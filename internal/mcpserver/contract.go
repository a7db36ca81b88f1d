package mcpserver

// TokenGrammar describes the navigation token wire form so that LLM consumers
// can walk the calendar through the dispatch tool.
const TokenGrammar = `# Mosaic Navigation Token Grammar

Every button in a mosaic menu carries one token. Pass it unchanged to the
` + "`" + `dispatch` + "`" + ` tool to get the next menu or entry.

## Wire form

` + "```" + `
<function>_<layer>_<value>
` + "```" + `

Exactly two ` + "`" + `_` + "`" + ` separators, at most 64 bytes.

| Field    | Values                                                        |
|----------|---------------------------------------------------------------|
| function | ` + "`" + `c` + "`" + ` command (show something), ` + "`" + `m` + "`" + ` menu (open a submenu)        |
| layer    | ` + "`" + `ma` + "`" + ` main, ` + "`" + `yr` + "`" + ` year, ` + "`" + `mo` + "`" + ` month, ` + "`" + `dy` + "`" + ` day                       |
| value    | ` + "`" + `latest` + "`" + `, ` + "`" + `previous` + "`" + `, ` + "`" + `calendar` + "`" + `, ` + "`" + `top` + "`" + `, or a date fragment          |

Date fragments are zero-padded: ` + "`" + `YYYY` + "`" + `, ` + "`" + `YYYY-MM` + "`" + `, ` + "`" + `YYYY-MM-DD` + "`" + `.

## Transitions

| Token                | Result                                   |
|----------------------|------------------------------------------|
| ` + "`" + `c_ma_latest` + "`" + `        | today's entry, or the closest earlier one |
| ` + "`" + `c_ma_previous` + "`" + `      | yesterday's entry, or the closest earlier |
| ` + "`" + `m_ma_calendar` + "`" + `      | year menu                                |
| ` + "`" + `m_yr_2022` + "`" + `          | month menu for 2022                      |
| ` + "`" + `m_mo_2022-05` + "`" + `       | day menu for May 2022                    |
| ` + "`" + `c_dy_2022-05-03` + "`" + `    | entry of 3 May 2022                      |
| ` + "`" + `c_<layer>_top` + "`" + `      | back to the top menu                     |

## Rules

1. Tokens are opaque to clients. Never build date fragments for periods that
   were not offered in a menu; they answer with a not-found notice.
2. A malformed token never fails. It returns the top menu.
3. Every entry view also returns the top menu, so navigation can continue.
4. Responses are stateless. The same token always yields the same menu for
   the same published dataset.
`
