package order

const classifierPrompt = `You are a classifier deciding whether a chat message is a purchase order request, meaning the user is asking to buy items or to total a list of priced items. Return a JSON object with the single key "score" and the value "yes" or "no". No preamble or explanation.`

const parserPrompt = `You extract line items from an order message. Return a JSON object with the single key "items", an array of objects each holding "price" (number) and "quantity" (integer). Include only items with an explicit price. Return {"items": []} when no priced items are present. No preamble or explanation.`

const calculatorPrompt = `You are a cashier totaling an order. Use the multiply tool to compute each line subtotal from its price and quantity, and the add tool to accumulate subtotals. Do not do arithmetic yourself. When the total is computed, reply with one short sentence stating the order total.`
