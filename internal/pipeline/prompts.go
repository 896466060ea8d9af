package pipeline

// extractionPrompt asks the model for the statement summary, transactions
// and MSI plans of a Mexican credit card statement as one JSON object.
const extractionPrompt = `Eres un analista financiero experto en extraer datos de estados de cuenta de tarjetas de crédito en México (BBVA, Citibanamex, Santander, HSBC, Amex, Nu, Banorte, etc.). Devuelve SOLO un objeto JSON válido con la estructura indicada.

# Reglas
1) Salida: únicamente el objeto JSON, sin Markdown ni texto adicional.
2) Resumen: busca "Saldo total", "Saldo al corte", "Pago mínimo", "Pago para no generar intereses", "Fecha límite de pago", "Fecha de corte", "CAT".
3) MSI: busca "Meses sin intereses", "MSI", "X de N", "Plan de pagos", "Diferidos".
4) Montos: números float (MXN por defecto). "$ 1,450.50" y "1.450,50" son 1450.50. Pagos y abonos NEGATIVOS, compras y cargos POSITIVOS.
5) Fechas: ISO YYYY-MM-DD. Si una transacción trae "12 OCT" sin año, infiere el año de la fecha de corte.
6) MSI "X de N": installment_index=X, installment_total=N.
7) No inventes datos: si un campo no existe, usa null.

# Estructura
{
  "statement_summary": {
    "issuer": "BBVA",
    "card_name": "Platinum o null",
    "last4": "1234 o null",
    "currency": "MXN",
    "cutoff_date": "YYYY-MM-DD",
    "period_start": "YYYY-MM-DD",
    "period_end": "YYYY-MM-DD",
    "due_date": "YYYY-MM-DD",
    "minimum_payment": 0.0,
    "no_interest_payment": 0.0,
    "total_balance": 0.0,
    "period_balance": 0.0,
    "credit_limit": 0.0,
    "cat": 0.0
  },
  "transactions": [
    {
      "date": "YYYY-MM-DD",
      "description": "Descripción limpia",
      "amount": 150.00,
      "category": "Groceries|Dining|Travel|Utilities|Shopping|Gas|Health|Payment|Other",
      "installment_plan": null
    }
  ],
  "msi": {
    "plans": [
      {
        "merchant": "Comercio",
        "purchase_date": "YYYY-MM-DD",
        "total_purchase_amount": 0.0,
        "installment_total": 12,
        "installment_index": 3
      }
    ]
  }
}`

// retryPrompt is sent once when the first response was not valid JSON.
const retryPrompt = "Devuelve únicamente el JSON válido solicitado. No incluyas texto adicional."
